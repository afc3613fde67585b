package main

import (
	"context"
	"fmt"
	"os"

	"campusid/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "campusid:", err)
		os.Exit(1)
	}
}
