package idcloudhost

import (
	"fmt"
	"sort"
	"strings"
)

// osVersions is the image catalog the create endpoint accepts, keyed
// by OS family.
var osVersions = map[string][]string{
	"almalinux":  {"9.x", "8.x"},
	"bsd":        {"freebsd_12.2"},
	"centos":     {"9.x"},
	"cloudlinux": {"8.4", "7.9"},
	"debian":     {"11", "12"},
	"fedora":     {"32", "34", "36"},
	"opensuse":   {"15.3"},
	"oracle":     {"9.x"},
	"rhel":       {"server_7.9", "server_8.4"},
	"rocky":      {"linux_8.4", "9.x"},
	"ubuntu":     {"20.04-lts", "21.04", "22.04-lts", "24.04-lts"},
	"vzlinux":    {"8.x"},
	"windows":    {"2019"},
}

// OSNames returns the accepted os_name values, sorted.
func OSNames() []string {
	names := make([]string, 0, len(osVersions))
	for name := range osVersions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OSVersions returns the union of accepted os_version values, sorted.
func OSVersions() []string {
	seen := map[string]bool{}
	for _, versions := range osVersions {
		for _, v := range versions {
			seen[v] = true
		}
	}
	versions := make([]string, 0, len(seen))
	for v := range seen {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// validateImage rejects an os_name/os_version pair the catalog does
// not list, naming the versions valid for that family.
func validateImage(osName, osVersion string) error {
	versions, ok := osVersions[osName]
	if !ok {
		return textEnvelope("failed to create the VM",
			fmt.Sprintf("os_name must be one of %s, got %s", strings.Join(OSNames(), ", "), osName))
	}
	for _, v := range versions {
		if v == osVersion {
			return nil
		}
	}
	return textEnvelope("failed to create the VM",
		fmt.Sprintf("selected os_name is %s then os_version must be one of %s, got %s",
			osName, strings.Join(versions, ", "), osVersion))
}
