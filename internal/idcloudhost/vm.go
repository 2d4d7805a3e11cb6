package idcloudhost

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// VMSpec is the desired state for a VM create.
type VMSpec struct {
	Name        string
	NetworkName string
	OSName      string
	OSVersion   string
	Disks       int64
	VCPU        int64
	RAM         int64
	Username    string
	Password    string
}

// assembleVM normalizes a raw VM record: scans the storage list for
// the primary disk and joins the floating IP records for the public
// address, which the VM payload itself never carries.
func (c *Client) assembleVM(ctx context.Context, rec *vmRecord) (*VM, error) {
	vm := &VM{
		UUID:           rec.UUID,
		Name:           rec.Name,
		Hostname:       rec.Hostname,
		VCPU:           rec.VCPU,
		RAM:            rec.Memory,
		PrivateIPv4:    rec.PrivateIPv4,
		BillingAccount: rec.BillingAccount,
		Status:         rec.Status,
	}

	for _, storage := range rec.Storage {
		if storage.Primary && vm.DiskUUID == "" {
			vm.Disks = storage.Size
			vm.DiskUUID = storage.UUID
		}
		vm.Storage = append(vm.Storage, Disk{
			UUID:   storage.UUID,
			Name:   storage.Name,
			Size:   storage.Size,
			VMName: rec.Name,
		})
	}

	ip, err := c.lookupIPRecord(ctx, rec.PrivateIPv4, rec.UUID, "")
	if err != nil {
		return nil, err
	}
	if ip != nil {
		vm.PublicIPv4 = ip.Address
	}
	return vm, nil
}

// EnsureVM converges on a VM with the given name existing. If it
// already exists the call is a no-op. Image validation runs before
// anything touches the API; the network is resolved before the create
// because the cost of landing in a wrong network is high.
func (c *Client) EnsureVM(ctx context.Context, spec VMSpec) (*VM, error) {
	if err := validateImage(spec.OSName, spec.OSVersion); err != nil {
		return nil, err
	}

	vm, err := c.FindVM(ctx, "", spec.Name)
	if err != nil {
		return nil, err
	}
	if vm != nil {
		vm.Changed = false
		return vm, nil
	}

	network, err := c.FindNetwork(ctx, spec.NetworkName)
	if err != nil {
		return nil, err
	}
	if network == nil {
		return nil, textEnvelope("failed to create the VM", "the selected network is not found")
	}

	tflog.Info(ctx, "Creating VM", map[string]any{
		"name":         spec.Name,
		"network_uuid": network.UUID,
		"os_name":      spec.OSName,
		"os_version":   spec.OSVersion,
	})

	form := url.Values{}
	form.Set("network_uuid", network.UUID)
	form.Set("name", spec.Name)
	form.Set("os_name", spec.OSName)
	form.Set("os_version", spec.OSVersion)
	form.Set("disks", strconv.FormatInt(spec.Disks, 10))
	form.Set("vcpu", strconv.FormatInt(spec.VCPU, 10))
	form.Set("ram", strconv.FormatInt(spec.RAM, 10))
	form.Set("username", spec.Username)
	form.Set("password", spec.Password)

	_, body, err := c.submitForm(ctx, http.MethodPost, "user-resource/vm", form)
	if err != nil {
		return nil, err
	}

	var rec vmRecord
	if err := json.Unmarshal(body, &rec); err != nil || rec.UUID == "" {
		return nil, newEnvelope("failed to create the VM", body)
	}

	created, err := c.assembleVM(ctx, &rec)
	if err != nil {
		return nil, err
	}
	created.Changed = true
	return created, nil
}

// ResizeVM converges the VM's primary disk size, vcpu count and RAM.
// When anything differs the sequence is: power off, PATCH ram/vcpu if
// they differ, PATCH the primary disk if it differs, power on. The
// two patches hit independent endpoints; when one fails the other is
// still attempted, because it may already have taken effect server
// side, and both error payloads are reported together. Returns nil
// when the VM does not exist.
func (c *Client) ResizeVM(ctx context.Context, name string, disks, vcpu, ram int64) (*VM, error) {
	rec, err := c.findVM(ctx, "", name)
	if err != nil || rec == nil {
		return nil, err
	}

	current, err := c.assembleVM(ctx, rec)
	if err != nil {
		return nil, err
	}

	if disks == current.Disks && vcpu == current.VCPU && ram == current.RAM {
		current.Changed = false
		return current, nil
	}

	tflog.Info(ctx, "Resizing VM", map[string]any{
		"name": name, "disks": disks, "vcpu": vcpu, "ram": ram,
	})

	// The provider rejects resizes on a running VM.
	if _, err := c.powerVM(ctx, rec.UUID, false); err != nil {
		return nil, err
	}

	latest := *rec
	var ramVCPUErr, disksErr json.RawMessage

	if vcpu != current.VCPU || ram != current.RAM {
		form := url.Values{}
		form.Set("uuid", rec.UUID)
		form.Set("name", name)
		form.Set("vcpu", strconv.FormatInt(vcpu, 10))
		form.Set("ram", strconv.FormatInt(ram, 10))

		_, body, err := c.submitForm(ctx, http.MethodPatch, "user-resource/vm", form)
		if err != nil {
			return nil, err
		}

		var out vmRecord
		if err := json.Unmarshal(body, &out); err == nil && out.UUID != "" {
			latest = out
		} else {
			ramVCPUErr = body
		}
	}

	if disks != current.Disks {
		// Separate endpoint, keyed by the primary disk's UUID, not the VM's.
		form := url.Values{}
		form.Set("uuid", rec.UUID)
		form.Set("disk_uuid", current.DiskUUID)
		form.Set("size_gb", strconv.FormatInt(disks, 10))

		_, body, err := c.submitForm(ctx, http.MethodPatch, "user-resource/vm/storage", form)
		if err != nil {
			return nil, err
		}

		var out storageRecord
		if err := json.Unmarshal(body, &out); err == nil && out.UUID != "" {
			for i := range latest.Storage {
				if latest.Storage[i].UUID == out.UUID {
					latest.Storage[i].Size = out.Size
				}
			}
		} else {
			disksErr = body
		}
	}

	started, err := c.powerVM(ctx, rec.UUID, true)
	if err != nil {
		return nil, err
	}
	latest.Status = started.Status

	if ramVCPUErr != nil || disksErr != nil {
		detail := map[string]json.RawMessage{}
		if ramVCPUErr != nil {
			detail["error_ram_vcpu"] = ramVCPUErr
		}
		if disksErr != nil {
			detail["error_disks"] = disksErr
		}
		body, _ := json.Marshal(detail)
		return nil, newEnvelope("failed to resize the VM", body)
	}

	resized, err := c.assembleVM(ctx, &latest)
	if err != nil {
		return nil, err
	}
	resized.Changed = true
	return resized, nil
}

// SetVMPower powers the VM on or off. The start/stop call is issued
// unconditionally; Changed reports whether the status actually
// transitioned. Returns nil when the VM does not exist.
func (c *Client) SetVMPower(ctx context.Context, name string, active bool) (*VM, error) {
	rec, err := c.findVM(ctx, "", name)
	if err != nil || rec == nil {
		return nil, err
	}

	out, err := c.powerVM(ctx, rec.UUID, active)
	if err != nil {
		return nil, err
	}

	vm, err := c.assembleVM(ctx, out)
	if err != nil {
		return nil, err
	}
	vm.Changed = out.Status != rec.Status
	return vm, nil
}

// DeleteVM removes the VM and, when removePublicIPv4 is set, its
// floating IP, deleted by address afterwards. Returns nil when there
// was nothing to delete.
func (c *Client) DeleteVM(ctx context.Context, name string, removePublicIPv4 bool) (*VM, error) {
	vm, err := c.FindVM(ctx, "", name)
	if err != nil || vm == nil {
		return nil, err
	}

	tflog.Info(ctx, "Deleting VM", map[string]any{
		"name": name, "uuid": vm.UUID, "remove_public_ipv4": removePublicIPv4,
	})

	form := url.Values{}
	form.Set("uuid", vm.UUID)

	status, body, err := c.submitForm(ctx, http.MethodDelete, "user-resource/vm", form)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, newEnvelope("failed to delete the VM", body)
	}

	if removePublicIPv4 && vm.PublicIPv4 != "" {
		if err := c.deleteIPByAddress(ctx, vm.PublicIPv4); err != nil {
			return nil, err
		}
	}

	vm.Changed = true
	return vm, nil
}

// powerVM issues the start/stop call and returns the fresh record.
func (c *Client) powerVM(ctx context.Context, uuid string, active bool) (*vmRecord, error) {
	action := "stop"
	if active {
		action = "start"
	}

	form := url.Values{}
	form.Set("uuid", uuid)

	_, body, err := c.submitForm(ctx, http.MethodPost, "user-resource/vm/"+action, form)
	if err != nil {
		return nil, err
	}

	var out vmRecord
	if err := json.Unmarshal(body, &out); err != nil || out.UUID == "" {
		return nil, newEnvelope("failed to "+action+" the VM", body)
	}
	return &out, nil
}
