package main

import (
	"context"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v4"
)

func init() {
	jwt.MarshalSingleStringAsArray = false
}

func main() {
	if err := app().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
