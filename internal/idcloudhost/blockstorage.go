package idcloudhost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Secondary disks only exist as sub-resources of a VM: created by
// attaching to one, removed by detaching and then destroying the
// volume. The provider picks the disk name (vdb, vdc, ...).

// AttachDisk creates a new disk of the given size on the named VM.
func (c *Client) AttachDisk(ctx context.Context, vmName string, sizeGB int64) (*Disk, error) {
	vm, err := c.findVM(ctx, "", vmName)
	if err != nil {
		return nil, err
	}
	if vm == nil {
		return nil, textEnvelope("failed to create the block storage",
			"the VM name is provided, but no VM was found")
	}

	tflog.Info(ctx, "Attaching block storage", map[string]any{"vm_name": vmName, "size_gb": sizeGB})

	form := url.Values{}
	form.Set("uuid", vm.UUID)
	form.Set("size_gb", strconv.FormatInt(sizeGB, 10))

	_, body, err := c.submitForm(ctx, http.MethodPost, "user-resource/vm/storage", form)
	if err != nil {
		return nil, err
	}

	var rec storageRecord
	if err := json.Unmarshal(body, &rec); err != nil || rec.UUID == "" {
		return nil, newEnvelope("failed to create the block storage", body)
	}

	return &Disk{
		UUID:    rec.UUID,
		Name:    rec.Name,
		Size:    rec.Size,
		VMName:  vm.Name,
		Changed: true,
	}, nil
}

// DetachDisk removes the disk with the given provider-assigned name
// from the named VM: detach first, then destroy the orphaned volume.
func (c *Client) DetachDisk(ctx context.Context, vmName, diskName string) (*Disk, error) {
	vm, err := c.findVM(ctx, "", vmName)
	if err != nil {
		return nil, err
	}
	if vm == nil {
		return nil, textEnvelope("failed to delete the block storage",
			"the VM name is provided, but no VM was found")
	}

	var disk *storageRecord
	for i := range vm.Storage {
		if vm.Storage[i].Name == diskName {
			disk = &vm.Storage[i]
			break
		}
	}
	if disk == nil {
		return nil, textEnvelope("failed to delete the block storage",
			"the block storage name is provided, but no disk was found")
	}

	tflog.Info(ctx, "Detaching block storage", map[string]any{
		"vm_name": vmName, "name": diskName, "uuid": disk.UUID,
	})

	form := url.Values{}
	form.Set("storage_uuid", disk.UUID)
	form.Set("uuid", vm.UUID)

	_, body, err := c.submitForm(ctx, http.MethodDelete, "user-resource/vm/storage", form)
	if err != nil {
		return nil, err
	}

	// The detach response carries a success marker, not the record.
	var marker map[string]json.RawMessage
	if err := json.Unmarshal(body, &marker); err != nil {
		return nil, newEnvelope("failed to delete the block storage", body)
	}
	if _, ok := marker["success"]; !ok {
		return nil, newEnvelope("failed to delete the block storage", body)
	}

	status, _, err := c.submitForm(ctx, http.MethodDelete, fmt.Sprintf("storage/disks/%s", disk.UUID), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusNoContent {
		return nil, textEnvelope("failed to delete the block storage",
			"there was a problem with the request when deleting the block storage")
	}

	return &Disk{
		UUID:    disk.UUID,
		Name:    disk.Name,
		Size:    disk.Size,
		VMName:  vm.Name,
		Changed: true,
	}, nil
}
