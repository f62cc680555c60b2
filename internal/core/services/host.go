package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
	"github.com/custodia-labs/cmdbridge/internal/core/ports/driven"
)

// callHost runs a command on the host, converting a panic into an error
// so a misbehaving command cannot take the process down.
func callHost(ctx context.Context, host driven.CommandHost, command string, args []any) (result any, err error) {
	if host == nil {
		return nil, fmt.Errorf("%w: no command host configured", domain.ErrHostExecution)
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("command %q panicked: %v", command, r)
		}
	}()

	return host.Execute(ctx, command, args)
}
