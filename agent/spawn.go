package agent

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Command describes one external agent to start.
type Command struct {
	Name       string
	Executable string
	Args       []string
	Options    Options
}

// SpawnAll starts every command concurrently. If any fails the ones that
// did start are closed and the first error is returned.
func SpawnAll(ctx context.Context, cmds []Command) ([]*Channel, error) {
	chans := make([]*Channel, len(cmds))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range cmds {
		g.Go(func() error {
			ch, err := Spawn(gctx, c.Name, c.Executable, c.Args, c.Options)
			if err != nil {
				return err
			}
			chans[i] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		CloseAll(chans)
		return nil, err
	}
	return chans, nil
}

// CloseAll closes every non-nil channel concurrently and joins the errors.
func CloseAll(chans []*Channel) error {
	errs := make([]error, len(chans))
	var g errgroup.Group
	for i, ch := range chans {
		if ch == nil {
			continue
		}
		g.Go(func() error {
			errs[i] = ch.Close()
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}
