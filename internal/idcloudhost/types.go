package idcloudhost

// Wire records mirror the subset of the API payloads the reconcilers
// read. Empty string means unset throughout; the API omits keys
// rather than sending null, so everything decodes to zero values.

type networkRecord struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	Subnet    string `json:"subnet"`
	IsDefault bool   `json:"is_default"`
}

type ipRecord struct {
	UUID                string `json:"uuid"`
	Name                string `json:"name"`
	Address             string `json:"address"`
	AssignedTo          string `json:"assigned_to"`
	AssignedToPrivateIP string `json:"assigned_to_private_ip"`
	Enabled             bool   `json:"enabled"`
}

type storageRecord struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Primary bool   `json:"primary"`
}

type vmRecord struct {
	UUID           string          `json:"uuid"`
	Name           string          `json:"name"`
	Hostname       string          `json:"hostname"`
	VCPU           int64           `json:"vcpu"`
	Memory         int64           `json:"memory"`
	PrivateIPv4    string          `json:"private_ipv4"`
	BillingAccount int64           `json:"billing_account"`
	Status         string          `json:"status"`
	Storage        []storageRecord `json:"storage"`
}

// Network is a VPC network. Identity is the UUID; the name is the
// human lookup key.
type Network struct {
	UUID      string
	Name      string
	Subnet    string
	IsDefault bool

	Changed bool
}

// FloatingIP is a public IPv4 address. AssignedToVMUUID and
// PrivateIPv4Address are either both empty (unassigned) or both set.
type FloatingIP struct {
	UUID               string
	Name               string
	PublicIPv4         string
	VMName             string
	AssignedToVMUUID   string
	PrivateIPv4Address string
	Enabled            bool

	Changed bool
}

// Disk is a secondary block storage volume attached to a VM. The name
// (vdb, vdc, ...) is assigned by the provider.
type Disk struct {
	UUID   string
	Name   string
	Size   int64
	VMName string

	Changed bool
}

// VM is a virtual machine. Disks/DiskUUID describe the primary disk
// only; Storage carries the full list. PublicIPv4 is never part of
// the provider's VM payload, it is joined from the floating IP
// records and empty when none is assigned.
type VM struct {
	UUID           string
	Name           string
	Hostname       string
	Disks          int64
	DiskUUID       string
	VCPU           int64
	RAM            int64
	PrivateIPv4    string
	PublicIPv4     string
	BillingAccount int64
	Status         string
	Storage        []Disk

	Changed bool
}
