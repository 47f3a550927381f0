package main

import (
	"context"
	"log"

	"github.com/eggpool/sqlitemulti/internal/multid"
)

func main() {
	if err := multid.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
