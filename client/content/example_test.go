package content_test

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/adamwoolhether/httpcli/client/content"
)

func ExampleMaterialize() {
	small, err := content.Materialize(context.Background(), strings.NewReader("short body"))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer small.Delete()

	large, err := content.Materialize(context.Background(),
		strings.NewReader(strings.Repeat("x", 2048)),
		content.WithMemoryLimit(1024),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer large.Delete()

	fmt.Println(small.Kind(), small.Size())
	fmt.Println(large.Kind(), large.Size())
	// Output:
	// memory 10
	// file 2048
}

func ExampleFromString() {
	c, err := content.FromString("hello", content.UTF8)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if _, err := c.WriteTo(os.Stdout); err != nil {
		fmt.Println("error:", err)
	}
	// Output: hello
}
