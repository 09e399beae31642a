package dispatch

import (
	"errors"

	"github.com/rickgao/netview/internal/model"
)

// MultiRenderer fans each render out to several renderers, in order.
// Every renderer is called even if an earlier one fails.
type MultiRenderer []Renderer

func (m MultiRenderer) RenderTraffic(rows []model.TrafficRow) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RenderTraffic(rows))
	}
	return errors.Join(errs...)
}

func (m MultiRenderer) RenderInterfaces(im model.InterfaceMap) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RenderInterfaces(im))
	}
	return errors.Join(errs...)
}
