// Command rosentry is the container entrypoint installed into images
// built from rosforge projects. It aligns the image user's UID and
// primary GID with the identity of the developer invoking the
// container (EXT_UID / EXT_UPGID), joins the render device groups,
// then replaces itself with the requested command running as that
// user.
package main

import (
	"fmt"
	"os"

	"github.com/eutrob/rosforge/internal/identity"
	"github.com/eutrob/rosforge/internal/logger"
)

func main() {
	if err := logger.Init(logger.Config{Level: "INFO", Output: "stderr"}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	params, err := identity.ParamsFromEnv()
	if err != nil {
		fail(err)
	}

	rec := identity.New("/", logger.With("component", "rosentry"))
	res, err := rec.Reconcile(params)
	if err != nil {
		fail(err)
	}

	// Handoff only returns on error: on success the process image is replaced.
	if err := rec.Handoff(res, os.Args[1:]); err != nil {
		fail(err)
	}
}

func fail(err error) {
	logger.Error(err.Error())
	os.Exit(1)
}
