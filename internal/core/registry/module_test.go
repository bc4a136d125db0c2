package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-netbind/internal/core/eventbus"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
	"github.com/dep2p/go-netbind/tests/mocks"
)

func TestModule_ProvidesRegistries(t *testing.T) {
	var (
		named    pkgif.NamedBindingRegistry
		unnamed  pkgif.UnnamedBindingRegistry
		concrete *NamedRegistry
	)

	app := fxtest.New(t,
		eventbus.Module(),
		Module(),
		fx.Populate(&named, &unnamed, &concrete),
	)
	app.RequireStart()

	require.NotNil(t, named)
	require.NotNil(t, unnamed)
	assert.Same(t, concrete, named)

	b := mocks.NewMockManagedBinding("http", addrPort("127.0.0.1:8080"))
	require.NoError(t, named.RegisterBinding(b))
	require.NoError(t, named.UnregisterBinding(b))

	app.RequireStop()
}

func TestModule_WithObserver(t *testing.T) {
	obs := mocks.NewMockBindingObserver()
	var unnamed pkgif.UnnamedBindingRegistry

	app := fxtest.New(t,
		fx.Provide(func() pkgif.BindingObserver { return obs }),
		Module(),
		fx.Populate(&unnamed),
	)
	app.RequireStart()
	defer app.RequireStop()

	b := mocks.NewMockManagedBinding("", addrPort("127.0.0.1:1"))
	require.NoError(t, unnamed.RegisterBinding(b))
	assert.Equal(t, 1, obs.RegisteredCount(KindUnnamed))
	require.NoError(t, unnamed.UnregisterBinding(b))
}
