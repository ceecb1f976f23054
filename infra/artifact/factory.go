package artifact

import (
	"fmt"

	"github.com/kilianp07/battery-health/core/factory"
	"github.com/kilianp07/battery-health/core/prediction"
)

// init registers the persistent artifact stores.
func init() {
	_ = prediction.RegisterStore("file", func(conf map[string]any) (prediction.Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("file store: path required")
		}
		return NewFileStore(c.Path), nil
	})

	_ = prediction.RegisterStore("sqlite", func(conf map[string]any) (prediction.Store, error) {
		var c struct {
			Path string `json:"path"`
			Name string `json:"name"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("sqlite store: path required")
		}
		return NewSQLiteStore(c.Path, c.Name)
	})
}
