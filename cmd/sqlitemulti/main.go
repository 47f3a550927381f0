package main

import (
	"context"
	"log"

	"github.com/eggpool/sqlitemulti/internal/multi"
)

func main() {
	if err := multi.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
