//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows/registry"

	"github.com/crafted-tech/packflow"
)

// registryStore implements Store on the real Windows registry.
type registryStore struct{}

// DefaultStore returns the registry-backed store.
func DefaultStore() (Store, error) {
	return registryStore{}, nil
}

func rootFor(hive packflow.Hive) (registry.Key, error) {
	switch hive {
	case packflow.HiveMachine:
		return registry.LOCAL_MACHINE, nil
	case packflow.HiveUser:
		return registry.CURRENT_USER, nil
	}
	return 0, fmt.Errorf("unknown hive %q", hive)
}

func (registryStore) SetString(hive packflow.Hive, key, name, value string) error {
	root, err := rootFor(hive)
	if err != nil {
		return err
	}
	k, _, err := registry.CreateKey(root, key, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create registry key: %w", err)
	}
	defer k.Close()
	if err := k.SetStringValue(name, value); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

func (registryStore) SetDWord(hive packflow.Hive, key, name string, value uint32) error {
	root, err := rootFor(hive)
	if err != nil {
		return err
	}
	k, _, err := registry.CreateKey(root, key, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create registry key: %w", err)
	}
	defer k.Close()
	if err := k.SetDWordValue(name, value); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

func (registryStore) GetString(hive packflow.Hive, key, name string) (string, error) {
	root, err := rootFor(hive)
	if err != nil {
		return "", err
	}
	k, err := registry.OpenKey(root, key, registry.QUERY_VALUE)
	if err != nil {
		return "", ErrNotExist
	}
	defer k.Close()
	v, _, err := k.GetStringValue(name)
	if err != nil {
		return "", ErrNotExist
	}
	return v, nil
}

func (registryStore) GetDWord(hive packflow.Hive, key, name string) (uint32, error) {
	root, err := rootFor(hive)
	if err != nil {
		return 0, err
	}
	k, err := registry.OpenKey(root, key, registry.QUERY_VALUE)
	if err != nil {
		return 0, ErrNotExist
	}
	defer k.Close()
	v, _, err := k.GetIntegerValue(name)
	if err != nil {
		return 0, ErrNotExist
	}
	return uint32(v), nil
}

func (registryStore) DeleteValue(hive packflow.Hive, key, name string) error {
	root, err := rootFor(hive)
	if err != nil {
		return err
	}
	k, err := registry.OpenKey(root, key, registry.SET_VALUE|registry.QUERY_VALUE|registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil // key already gone
	}
	if err := k.DeleteValue(name); err != nil && err != registry.ErrNotExist {
		k.Close()
		return fmt.Errorf("delete %s: %w", name, err)
	}
	empty := keyIsEmpty(k)
	k.Close()
	if empty {
		// Setting a value creates the containing key, so deleting the last
		// value removes the key too, like the portable store.
		if err := registry.DeleteKey(root, key); err != nil && err != registry.ErrNotExist {
			return fmt.Errorf("delete registry key: %w", err)
		}
	}
	return nil
}

func keyIsEmpty(k registry.Key) bool {
	if names, _ := k.ReadValueNames(1); len(names) > 0 {
		return false
	}
	if subs, _ := k.ReadSubKeyNames(1); len(subs) > 0 {
		return false
	}
	return true
}

func (registryStore) DeleteKey(hive packflow.Hive, key string) error {
	root, err := rootFor(hive)
	if err != nil {
		return err
	}
	if err := deleteKeyRecursive(root, key); err != nil && err != registry.ErrNotExist {
		return fmt.Errorf("delete registry key: %w", err)
	}
	return nil
}

func deleteKeyRecursive(root registry.Key, key string) error {
	k, err := registry.OpenKey(root, key, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		if err == registry.ErrNotExist {
			return nil
		}
		return err
	}
	subkeys, err := k.ReadSubKeyNames(-1)
	k.Close()
	if err == nil {
		for _, sub := range subkeys {
			if err := deleteKeyRecursive(root, key+`\`+sub); err != nil {
				return err
			}
		}
	}
	return registry.DeleteKey(root, key)
}
