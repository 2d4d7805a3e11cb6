package idcloudhost

import (
	"context"
	"encoding/json"
)

// The locator lists a whole collection in one GET (the API returns
// everything, there is no pagination) and scans for the first match.
// A miss is a nil entity, never an error; only the callers that exist
// purely to find something (DefaultNetwork, LookupPublicIP) fail hard.

func (c *Client) listNetworks(ctx context.Context) ([]networkRecord, json.RawMessage, error) {
	_, body, err := c.getJSON(ctx, "network/networks")
	if err != nil {
		return nil, nil, err
	}

	var records []networkRecord
	if err := json.Unmarshal(body, &records); err != nil {
		// Not a list: an API-level error payload. Callers decide
		// whether that is fatal.
		return nil, body, nil
	}
	return records, body, nil
}

// FindNetwork returns the first network with the given name, or nil.
func (c *Client) FindNetwork(ctx context.Context, name string) (*Network, error) {
	records, _, err := c.listNetworks(ctx)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.Name == name {
			return &Network{
				UUID:      rec.UUID,
				Name:      rec.Name,
				Subnet:    rec.Subnet,
				IsDefault: rec.IsDefault,
			}, nil
		}
	}
	return nil, nil
}

// DefaultNetwork returns the location's default network. Unlike the
// find calls, an empty or malformed collection here is a hard failure:
// the whole point of the call is that the default exists.
func (c *Client) DefaultNetwork(ctx context.Context) (*Network, error) {
	records, body, err := c.listNetworks(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, newEnvelope("failed to get the network", body)
	}

	for _, rec := range records {
		if rec.IsDefault {
			return &Network{
				UUID:      rec.UUID,
				Name:      rec.Name,
				Subnet:    rec.Subnet,
				IsDefault: rec.IsDefault,
			}, nil
		}
	}
	return nil, textEnvelope("failed to get the network", "no default network exists in this location")
}

// lookupIPRecord scans the floating IP collection. Match precedence is
// private IP assignment, then owning VM UUID, then name; the first
// record satisfying any supplied probe wins. Empty probe fields never
// match.
func (c *Client) lookupIPRecord(ctx context.Context, privateIP, vmUUID, name string) (*ipRecord, error) {
	_, body, err := c.getJSON(ctx, "network/ip_addresses")
	if err != nil {
		return nil, err
	}

	var records []ipRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, nil
	}

	for i := range records {
		rec := &records[i]
		found := privateIP != "" && rec.AssignedToPrivateIP == privateIP
		found = found || (vmUUID != "" && rec.AssignedTo == vmUUID)
		found = found || (name != "" && rec.Name == name)
		if found {
			return rec, nil
		}
	}
	return nil, nil
}

// FindFloatingIP returns the floating IP with the given name, or nil.
func (c *Client) FindFloatingIP(ctx context.Context, name string) (*FloatingIP, error) {
	rec, err := c.lookupIPRecord(ctx, "", "", name)
	if err != nil || rec == nil {
		return nil, err
	}
	return ipToFloatingIP(rec, ""), nil
}

// LookupPublicIP resolves the floating IP assigned to a VM, probed by
// VM UUID or private IPv4 address. No match is a hard failure; this
// call exists to find the address.
func (c *Client) LookupPublicIP(ctx context.Context, vmUUID, privateIPv4 string) (*FloatingIP, error) {
	rec, err := c.lookupIPRecord(ctx, privateIPv4, vmUUID, "")
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, textEnvelope("failed to get the public IPv4", "public IPv4 address is not found")
	}
	return ipToFloatingIP(rec, ""), nil
}

func ipToFloatingIP(rec *ipRecord, vmName string) *FloatingIP {
	return &FloatingIP{
		UUID:               rec.UUID,
		Name:               rec.Name,
		PublicIPv4:         rec.Address,
		VMName:             vmName,
		AssignedToVMUUID:   rec.AssignedTo,
		PrivateIPv4Address: rec.AssignedToPrivateIP,
		Enabled:            rec.Enabled,
	}
}

// findVM returns the raw record for the VM matching uuid or name, or nil.
func (c *Client) findVM(ctx context.Context, uuid, name string) (*vmRecord, error) {
	_, body, err := c.getJSON(ctx, "user-resource/vm/list")
	if err != nil {
		return nil, err
	}

	var records []vmRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, nil
	}

	for i := range records {
		rec := &records[i]
		if (uuid != "" && rec.UUID == uuid) || (name != "" && rec.Name == name) {
			return rec, nil
		}
	}
	return nil, nil
}

// FindVM returns the assembled VM matching uuid or name, or nil.
func (c *Client) FindVM(ctx context.Context, uuid, name string) (*VM, error) {
	rec, err := c.findVM(ctx, uuid, name)
	if err != nil || rec == nil {
		return nil, err
	}
	return c.assembleVM(ctx, rec)
}
