package app

import (
	"github.com/vk/patchbay/internal/registry"
	"github.com/vk/patchbay/modules/keyboard"
	"github.com/vk/patchbay/modules/logic"
	"github.com/vk/patchbay/modules/redis"
	"github.com/vk/patchbay/modules/socketio"
	"github.com/vk/patchbay/modules/timer"
	"github.com/vk/patchbay/modules/utils"
)

// coreModules is the definitive list of modules compiled into the patchbay
// binary and always registered, in registration order.
var coreModules = []registry.Module{
	&logic.Module{},
	&utils.Module{},
	&keyboard.Module{},
	&timer.Module{},
}

// remoteModules need a server to talk to and are registered only when the
// configuration has a package block for them.
var remoteModules = []struct {
	pkg    string
	module registry.Module
}{
	{redis.PackageName, &redis.Module{}},
	{socketio.PackageName, &socketio.Module{}},
}

func defaultModules(r *registry.Registry) []registry.Module {
	modules := append([]registry.Module(nil), coreModules...)
	for _, m := range remoteModules {
		if r.Configured(m.pkg) {
			modules = append(modules, m.module)
		}
	}
	return modules
}
