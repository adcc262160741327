package cli

import (
	"fmt"
	"log"
	"os"

	"pagesdeck/internal/forge"
)

var Stderr = log.New(os.Stderr, "", 0)
var Stdout = log.New(os.Stdout, "", 0)

// Exit prints err, if any, and terminates the process.
func Exit(err error) {
	if err != nil {
		Stderr.Println(describe(err))
		os.Exit(1)
	}
	os.Exit(0)
}

func describe(err error) string {
	if forge.IsAuthFailure(err) {
		return fmt.Sprintf("authentication failed, run `pagesdeck login` (%v)", err)
	}
	return err.Error()
}
