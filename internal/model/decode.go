package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnexpectedShape is returned when a payload is valid JSON but not the
// shape its target requires.
var ErrUnexpectedShape = errors.New("unexpected payload shape")

// UnmarshalJSON decodes {"router": {"interface": {...}}} preserving key order.
// A repeated key replaces the earlier value in its original position.
func (m *InterfaceMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var routers []RouterInterfaces
	routerIndex := make(map[string]int)

	err := decodeObject(dec, func(router string) error {
		ifaces, err := decodeInterfaces(dec, router)
		if err != nil {
			return err
		}
		ri := RouterInterfaces{Router: router, Interfaces: ifaces}
		if i, ok := routerIndex[router]; ok {
			routers[i] = ri
			return nil
		}
		routerIndex[router] = len(routers)
		routers = append(routers, ri)
		return nil
	})
	if err != nil {
		return err
	}

	m.Routers = routers
	return nil
}

func decodeInterfaces(dec *json.Decoder, router string) ([]InterfaceEntry, error) {
	var entries []InterfaceEntry
	index := make(map[string]int)

	err := decodeObject(dec, func(name string) error {
		var e InterfaceEntry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("interface %s/%s: %w", router, name, err)
		}
		e.Name = name
		if i, ok := index[name]; ok {
			entries[i] = e
			return nil
		}
		index[name] = len(entries)
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("router %s: %w", router, err)
	}
	return entries, nil
}

// decodeObject reads one JSON object from dec and calls fn for each member
// key, in order. fn must consume the member's value from dec.
func decodeObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: want object, got %v", ErrUnexpectedShape, tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: object key %v", ErrUnexpectedShape, tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}

	// Closing brace
	_, err = dec.Token()
	return err
}
