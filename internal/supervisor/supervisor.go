// SPDX-License-Identifier: Apache-2.0

// Package supervisor starts background services and stops all of them as
// soon as the first one exits or the parent context is canceled.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	logging "github.com/loopholelabs/logging/types"
)

var (
	NoServicesErr = errors.New("there are no services to run")
)

const DefaultShutdownTimeout = time.Second * 15

// Service runs until completion or until its context is canceled.
type Service interface {
	fmt.Stringer

	Start(ctx context.Context) error
}

// Run starts every service and blocks until the first of them exits, then
// cancels the rest and waits for them up to DefaultShutdownTimeout.
func Run(ctx context.Context, logger logging.Logger, services []Service) error {
	if len(services) == 0 {
		return NoServicesErr
	}
	logger = logger.SubLogger("supervisor")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exit := make(chan struct{}, len(services))
	for _, service := range services {
		service := service
		go func() {
			if err := service.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msgf("service '%s' exited with error", service)
			} else {
				logger.Info().Msgf("service '%s' exited", service)
			}
			exit <- struct{}{}
		}()
	}

	// wait for the first service to exit, then stop the rest
	<-exit

	wait := make(chan struct{})
	go func() {
		cancel()
		for i := 0; i < len(services)-1; i++ {
			<-exit
		}
		close(wait)
	}()

	select {
	case <-wait:
		logger.Info().Msg("all services were shut down")
	case <-time.After(DefaultShutdownTimeout):
		logger.Warn().Msg("shutdown timed out")
	}
	return nil
}
