package bluez

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

// DevicePath maps a MAC address to its BlueZ object path, e.g.
// "C6:86:A1:04:BE:00" on hci0 to /org/bluez/hci0/dev_C6_86_A1_04_BE_00.
func DevicePath(adapter, address string) dbus.ObjectPath {
	dev := strings.ReplaceAll(strings.ToUpper(address), ":", "_")
	return dbus.ObjectPath(fmt.Sprintf("/org/bluez/%s/dev_%s", adapter, dev))
}

// ValidateAddress accepts XX:XX:XX:XX:XX:XX in either case.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("bluetooth address is required")
	}
	parts := strings.Split(address, ":")
	if len(parts) != 6 {
		return fmt.Errorf("invalid bluetooth address %q (expected XX:XX:XX:XX:XX:XX)", address)
	}
	for _, p := range parts {
		if len(p) != 2 || strings.Trim(p, "0123456789abcdefABCDEF") != "" {
			return fmt.Errorf("invalid bluetooth address %q (expected XX:XX:XX:XX:XX:XX)", address)
		}
	}
	return nil
}

// FindCharacteristic returns the path of the characteristic with uuid below
// the device.
func FindCharacteristic(objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant, device dbus.ObjectPath, uuid string) (dbus.ObjectPath, error) {
	prefix := string(device) + "/"
	want := strings.ToLower(uuid)
	for path, ifaces := range objects {
		props, ok := ifaces[bluezGattChar]
		if !ok || !strings.HasPrefix(string(path), prefix) {
			continue
		}
		v, ok := props["UUID"]
		if !ok {
			continue
		}
		if got, ok := v.Value().(string); ok && strings.ToLower(got) == want {
			return path, nil
		}
	}
	return "", fmt.Errorf("characteristic %s not found on %s", uuid, device)
}

// changedProps returns the changed property map of a PropertiesChanged
// signal for iface emitted on path.
func changedProps(sig *dbus.Signal, path dbus.ObjectPath, iface string) (map[string]dbus.Variant, bool) {
	if sig == nil || sig.Path != path || sig.Name != dbusProperties+".PropertiesChanged" || len(sig.Body) < 2 {
		return nil, false
	}
	if name, ok := sig.Body[0].(string); !ok || name != iface {
		return nil, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	return changed, ok
}

// ChangedValue extracts a notified characteristic value.
func ChangedValue(sig *dbus.Signal, charPath dbus.ObjectPath) ([]byte, bool) {
	changed, ok := changedProps(sig, charPath, bluezGattChar)
	if !ok {
		return nil, false
	}
	v, ok := changed["Value"]
	if !ok {
		return nil, false
	}
	b, ok := v.Value().([]byte)
	return b, ok
}

// Disconnected reports whether sig announces that the device dropped.
func Disconnected(sig *dbus.Signal, devicePath dbus.ObjectPath) bool {
	changed, ok := changedProps(sig, devicePath, bluezDevice1)
	if !ok {
		return false
	}
	v, ok := changed["Connected"]
	if !ok {
		return false
	}
	connected, ok := v.Value().(bool)
	return ok && !connected
}
