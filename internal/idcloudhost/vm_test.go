package idcloudhost

import (
	"context"
	"errors"
	"net/http"
	"testing"

	. "github.com/onsi/gomega"
)

func webSpec() VMSpec {
	return VMSpec{
		Name:        "web01",
		NetworkName: "n1",
		OSName:      "ubuntu",
		OSVersion:   "24.04-lts",
		Disks:       20,
		VCPU:        2,
		RAM:         2048,
		Username:    "admin",
		Password:    "Sup3rsecret",
	}
}

func TestEnsureVMNoOpWhenPresent(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)
	api.respond("GET user-resource/vm/list", http.StatusOK,
		list(vmBody("vm-1", "web01", "running", 2, 2048, storageBody("disk-1", "vda", 20, true))))
	api.respond("GET network/ip_addresses", http.StatusOK,
		list(ipBody("ip-1", "edge", "103.0.0.1", "vm-1", "10.0.0.5")))

	client := newTestClient(t, api)
	vm, err := client.EnsureVM(context.Background(), webSpec())

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm.Changed).To(BeFalse())
	g.Expect(vm.UUID).To(Equal("vm-1"))
	g.Expect(vm.PublicIPv4).To(Equal("103.0.0.1"))
	g.Expect(api.mutating()).To(BeEmpty())
}

func TestEnsureVMCreates(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)
	api.respond("GET user-resource/vm/list", http.StatusOK, `[]`)
	api.respond("GET network/networks", http.StatusOK,
		list(networkBody("net-1", "n1", "10.0.0.0/24", false)))
	api.respond("GET network/ip_addresses", http.StatusOK, `[]`)
	api.handle("POST user-resource/vm", func(call recordedCall) (int, string) {
		g.Expect(call.Form.Get("network_uuid")).To(Equal("net-1"))
		g.Expect(call.Form.Get("os_name")).To(Equal("ubuntu"))
		g.Expect(call.Form.Get("os_version")).To(Equal("24.04-lts"))
		g.Expect(call.Form.Get("disks")).To(Equal("20"))
		g.Expect(call.Form.Get("vcpu")).To(Equal("2"))
		g.Expect(call.Form.Get("ram")).To(Equal("2048"))
		return http.StatusOK, vmBody("vm-1", "web01", "running", 2, 2048,
			storageBody("disk-1", "vda", 20, true))
	})

	client := newTestClient(t, api)
	vm, err := client.EnsureVM(context.Background(), webSpec())

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm.Changed).To(BeTrue())
	g.Expect(vm.UUID).To(Equal("vm-1"))
	g.Expect(vm.Disks).To(Equal(int64(20)))
	g.Expect(vm.DiskUUID).To(Equal("disk-1"))
	g.Expect(vm.PublicIPv4).To(BeEmpty())
	g.Expect(api.mutating()).To(Equal([]string{"POST user-resource/vm"}))
}

// A bad image pair must fail before anything touches the API.
func TestEnsureVMRejectsUnknownImageVersion(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)

	spec := webSpec()
	spec.OSVersion = "9.x"

	client := newTestClient(t, api)
	_, err := client.EnsureVM(context.Background(), spec)

	var envelope *Envelope
	g.Expect(errors.As(err, &envelope)).To(BeTrue())
	g.Expect(string(envelope.Detail)).To(ContainSubstring("os_version must be one of"))
	g.Expect(string(envelope.Detail)).To(ContainSubstring("24.04-lts"))
	g.Expect(api.calls).To(BeEmpty())
}

// A missing network fails before any VM create is issued: the cost of
// landing in a wrong network is high.
func TestEnsureVMMissingNetwork(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)
	api.respond("GET user-resource/vm/list", http.StatusOK, `[]`)
	api.respond("GET network/networks", http.StatusOK, `[]`)

	spec := webSpec()
	spec.NetworkName = "does-not-exist"

	client := newTestClient(t, api)
	_, err := client.EnsureVM(context.Background(), spec)

	var envelope *Envelope
	g.Expect(errors.As(err, &envelope)).To(BeTrue())
	g.Expect(string(envelope.Detail)).To(ContainSubstring("network is not found"))
	g.Expect(api.mutating()).To(BeEmpty())
}

func TestEnsureVMCreateRejected(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)
	api.respond("GET user-resource/vm/list", http.StatusOK, `[]`)
	api.respond("GET network/networks", http.StatusOK,
		list(networkBody("net-1", "n1", "10.0.0.0/24", false)))
	api.respond("POST user-resource/vm", http.StatusPaymentRequired, `{"error":"no billing account"}`)

	client := newTestClient(t, api)
	_, err := client.EnsureVM(context.Background(), webSpec())

	var envelope *Envelope
	g.Expect(errors.As(err, &envelope)).To(BeTrue())
	g.Expect(envelope.Msg).To(Equal("failed to create the VM"))
	g.Expect(string(envelope.Detail)).To(ContainSubstring("no billing account"))
}

func resizeFixture(t *testing.T) *fakeAPI {
	api := newFakeAPI(t)
	storage := storageBody("disk-1", "vda", 20, true)
	api.respond("GET user-resource/vm/list", http.StatusOK,
		list(vmBody("vm-1", "web01", "running", 2, 2048, storage)))
	api.respond("GET network/ip_addresses", http.StatusOK, `[]`)
	api.respond("POST user-resource/vm/stop", http.StatusOK,
		vmBody("vm-1", "web01", "stopped", 2, 2048, storage))
	api.respond("POST user-resource/vm/start", http.StatusOK,
		vmBody("vm-1", "web01", "running", 4, 4096, storageBody("disk-1", "vda", 40, true)))
	api.respond("PATCH user-resource/vm", http.StatusOK,
		vmBody("vm-1", "web01", "stopped", 4, 4096, storage))
	api.respond("PATCH user-resource/vm/storage", http.StatusOK,
		storageBody("disk-1", "vda", 40, true))
	return api
}

// Resize must stop first, patch ram/vcpu, patch the disk on its own
// endpoint, then start again, in that exact order.
func TestResizeVMOrdering(t *testing.T) {
	g := NewWithT(t)
	api := resizeFixture(t)

	client := newTestClient(t, api)
	vm, err := client.ResizeVM(context.Background(), "web01", 40, 4, 4096)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm.Changed).To(BeTrue())
	g.Expect(vm.VCPU).To(Equal(int64(4)))
	g.Expect(vm.RAM).To(Equal(int64(4096)))
	g.Expect(vm.Disks).To(Equal(int64(40)))
	g.Expect(api.mutating()).To(Equal([]string{
		"POST user-resource/vm/stop",
		"PATCH user-resource/vm",
		"PATCH user-resource/vm/storage",
		"POST user-resource/vm/start",
	}))
}

// When one of the two patches fails the sibling is still attempted:
// it may already have taken effect server side.
func TestResizeVMAttemptsBothPatchesOnFailure(t *testing.T) {
	g := NewWithT(t)
	api := resizeFixture(t)
	api.respond("PATCH user-resource/vm", http.StatusConflict, `{"errors":"cpu quota"}`)
	api.respond("PATCH user-resource/vm/storage", http.StatusConflict, `{"errors":"disk quota"}`)

	client := newTestClient(t, api)
	_, err := client.ResizeVM(context.Background(), "web01", 40, 4, 4096)

	var envelope *Envelope
	g.Expect(errors.As(err, &envelope)).To(BeTrue())
	g.Expect(envelope.Msg).To(Equal("failed to resize the VM"))
	g.Expect(string(envelope.Detail)).To(ContainSubstring("error_ram_vcpu"))
	g.Expect(string(envelope.Detail)).To(ContainSubstring("cpu quota"))
	g.Expect(string(envelope.Detail)).To(ContainSubstring("error_disks"))
	g.Expect(string(envelope.Detail)).To(ContainSubstring("disk quota"))
	g.Expect(api.mutating()).To(Equal([]string{
		"POST user-resource/vm/stop",
		"PATCH user-resource/vm",
		"PATCH user-resource/vm/storage",
		"POST user-resource/vm/start",
	}))
}

func TestResizeVMSkipsDiskPatchWhenUnchanged(t *testing.T) {
	g := NewWithT(t)
	api := resizeFixture(t)

	client := newTestClient(t, api)
	vm, err := client.ResizeVM(context.Background(), "web01", 20, 4, 4096)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm.Changed).To(BeTrue())
	g.Expect(api.mutating()).To(Equal([]string{
		"POST user-resource/vm/stop",
		"PATCH user-resource/vm",
		"POST user-resource/vm/start",
	}))
}

func TestResizeVMNoOpWhenAllMatch(t *testing.T) {
	g := NewWithT(t)
	api := resizeFixture(t)

	client := newTestClient(t, api)
	vm, err := client.ResizeVM(context.Background(), "web01", 20, 2, 2048)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm.Changed).To(BeFalse())
	g.Expect(api.mutating()).To(BeEmpty())
}

func TestResizeVMAbsentIsNoOp(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)
	api.respond("GET user-resource/vm/list", http.StatusOK, `[]`)

	client := newTestClient(t, api)
	vm, err := client.ResizeVM(context.Background(), "web01", 40, 4, 4096)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm).To(BeNil())
}

func TestSetVMPowerReportsTransition(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)
	storage := storageBody("disk-1", "vda", 20, true)
	api.respond("GET user-resource/vm/list", http.StatusOK,
		list(vmBody("vm-1", "web01", "stopped", 2, 2048, storage)))
	api.respond("GET network/ip_addresses", http.StatusOK, `[]`)
	api.respond("POST user-resource/vm/start", http.StatusOK,
		vmBody("vm-1", "web01", "running", 2, 2048, storage))

	client := newTestClient(t, api)
	vm, err := client.SetVMPower(context.Background(), "web01", true)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm.Changed).To(BeTrue())
	g.Expect(vm.Status).To(Equal("running"))

	// Starting an already running VM still issues the call but is not
	// a change.
	api.respond("GET user-resource/vm/list", http.StatusOK,
		list(vmBody("vm-1", "web01", "running", 2, 2048, storage)))

	vm, err = client.SetVMPower(context.Background(), "web01", true)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm.Changed).To(BeFalse())
	g.Expect(api.mutating()).To(Equal([]string{
		"POST user-resource/vm/start",
		"POST user-resource/vm/start",
	}))
}

func TestSetVMPowerRejected(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)
	api.respond("GET user-resource/vm/list", http.StatusOK,
		list(vmBody("vm-1", "web01", "running", 2, 2048, storageBody("disk-1", "vda", 20, true))))
	api.respond("GET network/ip_addresses", http.StatusOK, `[]`)
	api.respond("POST user-resource/vm/stop", http.StatusInternalServerError, `{"error":"host unavailable"}`)

	client := newTestClient(t, api)
	_, err := client.SetVMPower(context.Background(), "web01", false)

	var envelope *Envelope
	g.Expect(errors.As(err, &envelope)).To(BeTrue())
	g.Expect(envelope.Msg).To(Equal("failed to stop the VM"))
}

// Cascading delete issues exactly two mutating calls: the VM delete,
// then the floating IP delete by address.
func TestDeleteVMCascadesToFloatingIP(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)
	api.respond("GET user-resource/vm/list", http.StatusOK,
		list(vmBody("vm-1", "web01", "running", 2, 2048, storageBody("disk-1", "vda", 20, true))))
	api.respond("GET network/ip_addresses", http.StatusOK,
		list(ipBody("ip-1", "edge", "103.0.0.1", "vm-1", "10.0.0.5")))
	api.respond("DELETE user-resource/vm", http.StatusOK, ``)
	api.respond("DELETE network/ip_addresses/103.0.0.1", http.StatusOK, ``)

	client := newTestClient(t, api)
	vm, err := client.DeleteVM(context.Background(), "web01", true)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm.Changed).To(BeTrue())
	g.Expect(api.mutating()).To(Equal([]string{
		"DELETE user-resource/vm",
		"DELETE network/ip_addresses/103.0.0.1",
	}))
}

func TestDeleteVMKeepsFloatingIP(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)
	api.respond("GET user-resource/vm/list", http.StatusOK,
		list(vmBody("vm-1", "web01", "running", 2, 2048, storageBody("disk-1", "vda", 20, true))))
	api.respond("GET network/ip_addresses", http.StatusOK,
		list(ipBody("ip-1", "edge", "103.0.0.1", "vm-1", "10.0.0.5")))
	api.respond("DELETE user-resource/vm", http.StatusOK, ``)

	client := newTestClient(t, api)
	vm, err := client.DeleteVM(context.Background(), "web01", false)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm.Changed).To(BeTrue())
	g.Expect(api.mutating()).To(Equal([]string{"DELETE user-resource/vm"}))
}

func TestDeleteVMAbsentIsNoOp(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)
	api.respond("GET user-resource/vm/list", http.StatusOK, `[]`)

	client := newTestClient(t, api)
	vm, err := client.DeleteVM(context.Background(), "web01", true)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm).To(BeNil())
	g.Expect(api.mutating()).To(BeEmpty())
}

// The primary disk is the storage entry flagged primary; the rest are
// secondary volumes.
func TestAssembleVMPrimaryDiskScan(t *testing.T) {
	g := NewWithT(t)
	api := newFakeAPI(t)
	api.respond("GET user-resource/vm/list", http.StatusOK, list(vmBody("vm-1", "web01", "running", 2, 2048,
		storageBody("disk-2", "vdb", 100, false)+","+storageBody("disk-1", "vda", 20, true))))
	api.respond("GET network/ip_addresses", http.StatusOK, `[]`)

	client := newTestClient(t, api)
	vm, err := client.FindVM(context.Background(), "", "web01")

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(vm.Disks).To(Equal(int64(20)))
	g.Expect(vm.DiskUUID).To(Equal("disk-1"))
	g.Expect(vm.Storage).To(HaveLen(2))
	g.Expect(vm.PublicIPv4).To(BeEmpty())
}
