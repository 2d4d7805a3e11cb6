package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	resourceschema "github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"terraform-provider-idcloudhost/internal/idcloudhost"
)

var (
	_ resource.Resource              = &vmResource{}
	_ resource.ResourceWithConfigure = &vmResource{}
)

const (
	vmStateActive   = "active"
	vmStateInactive = "inactive"
)

type vmResource struct {
	client *idcloudhost.Client
}

type vmResourceModel struct {
	UUID             types.String `tfsdk:"uuid"`
	Name             types.String `tfsdk:"name"`
	Hostname         types.String `tfsdk:"hostname"`
	NetworkName      types.String `tfsdk:"network_name"`
	OSName           types.String `tfsdk:"os_name"`
	OSVersion        types.String `tfsdk:"os_version"`
	Disks            types.Int64  `tfsdk:"disks"`
	DiskUUID         types.String `tfsdk:"disk_uuid"`
	VCPU             types.Int64  `tfsdk:"vcpu"`
	RAM              types.Int64  `tfsdk:"ram"`
	Username         types.String `tfsdk:"username"`
	Password         types.String `tfsdk:"password"`
	PrivateIPv4      types.String `tfsdk:"private_ipv4"`
	PublicIPv4       types.String `tfsdk:"public_ipv4"`
	BillingAccount   types.Int64  `tfsdk:"billing_account"`
	Status           types.String `tfsdk:"status"`
	State            types.String `tfsdk:"state"`
	RemovePublicIPv4 types.Bool   `tfsdk:"remove_public_ipv4"`
}

func NewVMResource() resource.Resource {
	return &vmResource{}
}

func (r *vmResource) Metadata(_ context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_vm"
}

func (r *vmResource) Schema(_ context.Context, _ resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = resourceschema.Schema{
		Description: "Manages a VM. Changing disks, vcpu or ram resizes in place " +
			"(the VM is powered off for the duration); most other attributes force replacement.",
		Attributes: map[string]resourceschema.Attribute{
			"uuid": resourceschema.StringAttribute{
				Computed:    true,
				Description: "UUID of the VM.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": resourceschema.StringAttribute{
				Required:    true,
				Description: "Informative VM name, also used to derive the hostname.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"hostname": resourceschema.StringAttribute{
				Computed:    true,
				Description: "Machine hostname.",
			},
			"network_name": resourceschema.StringAttribute{
				Required:    true,
				Description: "Name of an existing network to attach the VM to.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"os_name": resourceschema.StringAttribute{
				Required:    true,
				Description: "Operating system family.",
				Validators:  []validator.String{stringvalidator.OneOf(idcloudhost.OSNames()...)},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"os_version": resourceschema.StringAttribute{
				Required:    true,
				Description: "Operating system version. Valid values depend on os_name.",
				Validators:  []validator.String{stringvalidator.OneOf(idcloudhost.OSVersions()...)},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"disks": resourceschema.Int64Attribute{
				Required:    true,
				Description: "Size of the primary disk in GB.",
			},
			"disk_uuid": resourceschema.StringAttribute{
				Computed:    true,
				Description: "UUID of the primary disk.",
			},
			"vcpu": resourceschema.Int64Attribute{
				Required:    true,
				Description: "Number of CPUs.",
			},
			"ram": resourceschema.Int64Attribute{
				Required:    true,
				Description: "RAM in MB.",
			},
			"username": resourceschema.StringAttribute{
				Required:    true,
				Description: "Login user created on the VM.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"password": resourceschema.StringAttribute{
				Required:    true,
				Sensitive:   true,
				Description: "Password for the login user.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"private_ipv4": resourceschema.StringAttribute{
				Computed:    true,
				Description: "Private IPv4 address.",
			},
			"public_ipv4": resourceschema.StringAttribute{
				Computed: true,
				Description: "Public IPv4 address resolved from the floating IP records. " +
					"Empty when no floating IP is assigned.",
			},
			"billing_account": resourceschema.Int64Attribute{
				Computed:    true,
				Description: "Billing account paying for the VM.",
			},
			"status": resourceschema.StringAttribute{
				Computed:    true,
				Description: "Raw VM status as reported by the provider.",
			},
			"state": resourceschema.StringAttribute{
				Optional:    true,
				Computed:    true,
				Description: "Desired power state, `active` or `inactive`. Defaults to active.",
				Validators:  []validator.String{stringvalidator.OneOf(vmStateActive, vmStateInactive)},
			},
			"remove_public_ipv4": resourceschema.BoolAttribute{
				Required: true,
				Description: "Whether destroying the VM also deletes its floating IP. " +
					"Required so the cascade is always an explicit decision.",
			},
		},
	}
}

func (r *vmResource) Configure(_ context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}

	client, ok := req.ProviderData.(*idcloudhost.Client)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected provider data type",
			fmt.Sprintf("Expected *idcloudhost.Client, got %T", req.ProviderData),
		)
		return
	}

	r.client = client
}

func (r *vmResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var plan vmResourceModel
	diags := req.Plan.Get(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	vm, err := r.client.EnsureVM(ctx, idcloudhost.VMSpec{
		Name:        plan.Name.ValueString(),
		NetworkName: plan.NetworkName.ValueString(),
		OSName:      plan.OSName.ValueString(),
		OSVersion:   plan.OSVersion.ValueString(),
		Disks:       plan.Disks.ValueInt64(),
		VCPU:        plan.VCPU.ValueInt64(),
		RAM:         plan.RAM.ValueInt64(),
		Username:    plan.Username.ValueString(),
		Password:    plan.Password.ValueString(),
	})
	if err != nil {
		resp.Diagnostics.AddError("Error creating VM", err.Error())
		return
	}

	tflog.Info(ctx, "Reconciled VM", map[string]any{
		"name":    vm.Name,
		"uuid":    vm.UUID,
		"changed": vm.Changed,
	})

	// New VMs come up running; power down if inactive was asked for.
	if plan.State.ValueString() == vmStateInactive {
		vm, err = r.client.SetVMPower(ctx, vm.Name, false)
		if err != nil {
			resp.Diagnostics.AddError("Error powering off VM", err.Error())
			return
		}
	}

	mapVMToModel(&plan, vm)
	diags = resp.State.Set(ctx, &plan)
	resp.Diagnostics.Append(diags...)
}

func (r *vmResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var state vmResourceModel
	diags := req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	vm, err := r.client.FindVM(ctx, state.UUID.ValueString(), state.Name.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error reading VM", err.Error())
		return
	}
	if vm == nil {
		resp.State.RemoveResource(ctx)
		return
	}

	mapVMToModel(&state, vm)
	diags = resp.State.Set(ctx, &state)
	resp.Diagnostics.Append(diags...)
}

func (r *vmResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan vmResourceModel
	var state vmResourceModel

	diags := req.Plan.Get(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	diags = req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := state.Name.ValueString()

	vm, err := r.client.ResizeVM(ctx, name,
		plan.Disks.ValueInt64(), plan.VCPU.ValueInt64(), plan.RAM.ValueInt64())
	if err != nil {
		resp.Diagnostics.AddError("Error resizing VM", err.Error())
		return
	}
	if vm == nil {
		resp.State.RemoveResource(ctx)
		return
	}

	tflog.Info(ctx, "Reconciled VM size", map[string]any{
		"name":    name,
		"changed": vm.Changed,
	})

	desired := plan.State.ValueString()
	if desired == "" {
		desired = vmStateActive
	}
	powered, err := r.client.SetVMPower(ctx, name, desired == vmStateActive)
	if err != nil {
		resp.Diagnostics.AddError("Error setting VM power state", err.Error())
		return
	}
	if powered != nil {
		vm = powered
	}

	mapVMToModel(&plan, vm)
	diags = resp.State.Set(ctx, &plan)
	resp.Diagnostics.Append(diags...)
}

func (r *vmResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var state vmResourceModel
	diags := req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	vm, err := r.client.DeleteVM(ctx, state.Name.ValueString(), state.RemovePublicIPv4.ValueBool())
	if err != nil {
		resp.Diagnostics.AddError("Error deleting VM", err.Error())
		return
	}

	tflog.Info(ctx, "Deleted VM", map[string]any{
		"name":               state.Name.ValueString(),
		"remove_public_ipv4": state.RemovePublicIPv4.ValueBool(),
		"changed":            vm != nil,
	})

	resp.State.RemoveResource(ctx)
}

func mapVMToModel(m *vmResourceModel, vm *idcloudhost.VM) {
	m.UUID = types.StringValue(vm.UUID)
	m.Name = types.StringValue(vm.Name)
	m.Hostname = types.StringValue(vm.Hostname)
	m.Disks = types.Int64Value(vm.Disks)
	m.DiskUUID = types.StringValue(vm.DiskUUID)
	m.VCPU = types.Int64Value(vm.VCPU)
	m.RAM = types.Int64Value(vm.RAM)
	m.PrivateIPv4 = types.StringValue(vm.PrivateIPv4)
	m.PublicIPv4 = types.StringValue(vm.PublicIPv4)
	m.BillingAccount = types.Int64Value(vm.BillingAccount)
	m.Status = types.StringValue(vm.Status)
	if vm.Status == "running" {
		m.State = types.StringValue(vmStateActive)
	} else {
		m.State = types.StringValue(vmStateInactive)
	}
}
