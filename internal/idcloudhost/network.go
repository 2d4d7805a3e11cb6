package idcloudhost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Networks have no update path: besides create and delete they are
// immutable.

// EnsureNetwork converges on a network with the given name existing.
// If it already exists the call is a no-op and Changed is false.
func (c *Client) EnsureNetwork(ctx context.Context, name string) (*Network, error) {
	network, err := c.FindNetwork(ctx, name)
	if err != nil {
		return nil, err
	}
	if network != nil {
		network.Changed = false
		return network, nil
	}

	tflog.Info(ctx, "Creating network", map[string]any{"name": name})

	// The create endpoint takes the name as a query parameter, not a body.
	_, body, err := c.submitForm(ctx, http.MethodPost, "network/network?name="+name, nil)
	if err != nil {
		return nil, err
	}

	var rec networkRecord
	if err := json.Unmarshal(body, &rec); err != nil || rec.UUID == "" {
		return nil, newEnvelope("failed to create the VPC network", body)
	}

	return &Network{
		UUID:      rec.UUID,
		Name:      rec.Name,
		Subnet:    rec.Subnet,
		IsDefault: rec.IsDefault,
		Changed:   true,
	}, nil
}

// DeleteNetwork converges on no network with the given name existing.
// Returns nil when there was nothing to delete.
func (c *Client) DeleteNetwork(ctx context.Context, name string) (*Network, error) {
	network, err := c.FindNetwork(ctx, name)
	if err != nil {
		return nil, err
	}
	if network == nil {
		return nil, nil
	}

	tflog.Info(ctx, "Deleting network", map[string]any{"name": name, "uuid": network.UUID})

	status, _, err := c.submitForm(ctx, http.MethodDelete, fmt.Sprintf("network/network/%s", network.UUID), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		// This endpoint gives no structured body on failure.
		return nil, textEnvelope("failed to delete the VPC network",
			"there was a problem with the request when deleting the network")
	}

	network.Changed = true
	return network, nil
}
