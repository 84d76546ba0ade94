package registration

import (
	"context"
	"fmt"
	"io"

	"github.com/campusmatch/campusmatch/internal/website"
	"github.com/campusmatch/campusmatch/internal/website/components"
	"github.com/campusmatch/campusmatch/internal/website/landing"
	"github.com/campusmatch/campusmatch/pkg/core"
	"github.com/campusmatch/campusmatch/pkg/protocol"
	"github.com/campusmatch/campusmatch/pkg/router"
)

// LandingView is the home page. Only the testimonials carousel is live.
type LandingView struct {
	core.BaseComponent

	opts  landing.Options
	nonce string
}

// NewLandingView returns a constructor for router.Live.
func NewLandingView(opts landing.Options) func() core.Component {
	return func() core.Component {
		return &LandingView{opts: opts}
	}
}

// Name implements core.Component.
func (v *LandingView) Name() string {
	return "landing"
}

// Mount implements core.Component.
func (v *LandingView) Mount(ctx context.Context, params core.Params, session core.Session) error {
	v.nonce = router.GetCSPNonce(ctx)
	v.opts.TestimonialIndex = 0
	return nil
}

// Index is the first testimonial shown.
func (v *LandingView) Index() int {
	return v.opts.TestimonialIndex
}

// HandleEvent moves the carousel.
func (v *LandingView) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	n := len(v.opts.Testimonials)
	switch event {
	case components.EventTestimonialPrev:
		v.opts.TestimonialIndex = components.WrapIndex(v.opts.TestimonialIndex-1, n)
	case components.EventTestimonialNext:
		v.opts.TestimonialIndex = components.WrapIndex(v.opts.TestimonialIndex+1, n)
	case components.EventTestimonialGoto:
		i, ok := protocol.Message{Payload: payload}.Int("step")
		if !ok {
			return fmt.Errorf("%w: %s without step", ErrBadPayload, event)
		}
		v.opts.TestimonialIndex = components.WrapIndex(i, n)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	return nil
}

// Render implements core.Component.
func (v *LandingView) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		cfg := website.DefaultPageConfig()
		cfg.Nonce = v.nonce
		cfg.Live = true
		_, err := io.WriteString(w, landing.RenderLanding(cfg, v.opts))
		return err
	})
}

// Terminate implements core.Component.
func (v *LandingView) Terminate(ctx context.Context, reason core.TerminateReason) error {
	return nil
}
