package router

import (
	"context"
	"fmt"

	"github.com/campusmatch/campusmatch/pkg/core"
	"github.com/campusmatch/campusmatch/pkg/wizard"
)

// SocketNavigator moves the browser behind a live socket. The client
// performs the actual page load or history step.
type SocketNavigator struct {
	socket *core.Socket
}

var _ wizard.Navigator = (*SocketNavigator)(nil)

// NewSocketNavigator returns a navigator for socket. A nil socket (plain
// HTTP render) fails every call with wizard.ErrNoNavigator.
func NewSocketNavigator(socket *core.Socket) *SocketNavigator {
	return &SocketNavigator{socket: socket}
}

// Navigate pushes an lv:navigate event.
func (n *SocketNavigator) Navigate(ctx context.Context, path string) error {
	if n.socket == nil {
		return wizard.ErrNoNavigator
	}
	if err := n.socket.Navigate(path); err != nil {
		return fmt.Errorf("push navigate: %w", err)
	}
	return nil
}

// Back pushes an lv:back event.
func (n *SocketNavigator) Back(ctx context.Context) error {
	if n.socket == nil {
		return wizard.ErrNoNavigator
	}
	if err := n.socket.Back(); err != nil {
		return fmt.Errorf("push back: %w", err)
	}
	return nil
}
