package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/CompilationErrror/library-auth/internal/bootstrap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	err := bootstrap.Run(context.Background(), bootstrap.Options{ConfigPath: *configPath})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "library-auth failed: %v\n", err)
		os.Exit(1)
	}
}
