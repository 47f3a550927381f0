package main

import (
	"context"
	"log"

	"github.com/eggpool/sqlitemulti/internal/multibench"
)

func main() {
	if err := multibench.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
