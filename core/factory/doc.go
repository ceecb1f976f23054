// Package factory instantiates pluggable components (metrics sinks, model
// artifact stores) from configuration. A component is selected by a type
// string; its raw settings are decoded into a typed struct by the factory.
//
//	stores := factory.NewRegistry[prediction.Store]()
//	_ = stores.Register("file", func(conf map[string]any) (prediction.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return artifact.NewFileStore(c.Path), nil
//	})
//	s, err := stores.Create(factory.ModuleConfig{Type: "file", Conf: map[string]any{"path": "model.bhm"}})
package factory
