package idcloudhost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// EnsureFloatingIP converges on a floating IP with the given name
// existing and, when vmName is non-empty, assigned to that VM. An
// already-assigned address is left alone; assignment is never moved
// between VMs here.
func (c *Client) EnsureFloatingIP(ctx context.Context, name, vmName string) (*FloatingIP, error) {
	rec, err := c.lookupIPRecord(ctx, "", "", name)
	if err != nil {
		return nil, err
	}

	vm, err := c.resolveAssignmentVM(ctx, vmName)
	if err != nil {
		return nil, err
	}

	if rec != nil {
		ip := ipToFloatingIP(rec, vmName)
		ip.Changed = false

		if vm != nil && ip.AssignedToVMUUID == "" {
			assigned, err := c.assignIP(ctx, ip.PublicIPv4, vm.UUID)
			if err != nil {
				return nil, err
			}
			ip.VMName = vm.Name
			ip.AssignedToVMUUID = assigned.AssignedTo
			ip.PrivateIPv4Address = assigned.AssignedToPrivateIP
			ip.Changed = true
		}
		return ip, nil
	}

	tflog.Info(ctx, "Creating floating IP", map[string]any{"name": name, "vm_name": vmName})

	_, body, err := c.submitJSON(ctx, http.MethodPost, "network/ip_addresses", map[string]string{"name": name})
	if err != nil {
		return nil, err
	}

	var created ipRecord
	if err := json.Unmarshal(body, &created); err != nil || created.UUID == "" {
		return nil, newEnvelope("failed to create the floating IP", body)
	}

	ip := &FloatingIP{
		UUID:       created.UUID,
		Name:       created.Name,
		PublicIPv4: created.Address,
		Enabled:    created.Enabled,
		// Creation alone is a change, whatever the assignment sub-step does.
		Changed: true,
	}

	if vm != nil {
		assigned, err := c.assignIP(ctx, created.Address, vm.UUID)
		if err != nil {
			return nil, err
		}
		ip.VMName = vm.Name
		ip.AssignedToVMUUID = assigned.AssignedTo
		ip.PrivateIPv4Address = assigned.AssignedToPrivateIP
	}
	return ip, nil
}

// UnassignFloatingIP clears the VM association of the named floating
// IP. Changed reports whether it actually had been assigned. Returns
// nil when the address does not exist.
func (c *Client) UnassignFloatingIP(ctx context.Context, name string) (*FloatingIP, error) {
	rec, err := c.lookupIPRecord(ctx, "", "", name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	wasAssigned := rec.AssignedTo != ""

	tflog.Info(ctx, "Unassigning floating IP", map[string]any{"name": name, "address": rec.Address})

	_, body, err := c.submitJSON(ctx, http.MethodPost, fmt.Sprintf("network/ip_addresses/%s/unassign", rec.Address), nil)
	if err != nil {
		return nil, err
	}

	var out ipRecord
	if err := json.Unmarshal(body, &out); err != nil || out.UUID == "" {
		return nil, newEnvelope("failed to unassign the floating IP from the selected VM", body)
	}

	ip := ipToFloatingIP(rec, "")
	ip.AssignedToVMUUID = ""
	ip.PrivateIPv4Address = ""
	ip.Changed = wasAssigned
	return ip, nil
}

// DeleteFloatingIP removes the named floating IP. The API deletes by
// address, not UUID. Returns nil when there was nothing to delete.
func (c *Client) DeleteFloatingIP(ctx context.Context, name string) (*FloatingIP, error) {
	rec, err := c.lookupIPRecord(ctx, "", "", name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	if err := c.deleteIPByAddress(ctx, rec.Address); err != nil {
		return nil, err
	}

	ip := ipToFloatingIP(rec, "")
	ip.Changed = true
	return ip, nil
}

func (c *Client) deleteIPByAddress(ctx context.Context, address string) error {
	tflog.Info(ctx, "Deleting floating IP", map[string]any{"address": address})

	status, _, err := c.submitForm(ctx, http.MethodDelete, fmt.Sprintf("network/ip_addresses/%s", address), nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return textEnvelope("failed to delete the public IPv4 address",
			"there was a problem with the request when deleting the public IPv4 address")
	}
	return nil
}

// assignIP attaches an address to a VM and returns the updated
// association record.
func (c *Client) assignIP(ctx context.Context, address, vmUUID string) (*ipRecord, error) {
	tflog.Info(ctx, "Assigning floating IP", map[string]any{"address": address, "vm_uuid": vmUUID})

	_, body, err := c.submitJSON(ctx, http.MethodPost, fmt.Sprintf("network/ip_addresses/%s/assign", address), map[string]string{"vm_uuid": vmUUID})
	if err != nil {
		return nil, err
	}

	var out ipRecord
	if err := json.Unmarshal(body, &out); err != nil || out.UUID == "" {
		return nil, newEnvelope("failed to assign the floating IP into the selected VM", body)
	}
	return &out, nil
}

// resolveAssignmentVM looks up the assignment target. A vmName that
// resolves to nothing is a hard failure: silently creating an
// unassigned address would hide a typo.
func (c *Client) resolveAssignmentVM(ctx context.Context, vmName string) (*vmRecord, error) {
	if vmName == "" {
		return nil, nil
	}
	vm, err := c.findVM(ctx, "", vmName)
	if err != nil {
		return nil, err
	}
	if vm == nil {
		return nil, textEnvelope("failed to create the floating IP",
			"the VM name is provided, but no VM was found")
	}
	return vm, nil
}
