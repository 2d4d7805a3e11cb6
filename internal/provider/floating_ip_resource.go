package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/resource"
	resourceschema "github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"terraform-provider-idcloudhost/internal/idcloudhost"
)

var (
	_ resource.Resource              = &floatingIPResource{}
	_ resource.ResourceWithConfigure = &floatingIPResource{}
)

type floatingIPResource struct {
	client *idcloudhost.Client
}

type floatingIPResourceModel struct {
	UUID               types.String `tfsdk:"uuid"`
	Name               types.String `tfsdk:"name"`
	VMName             types.String `tfsdk:"vm_name"`
	PublicIPv4         types.String `tfsdk:"public_ipv4"`
	AssignedToVMUUID   types.String `tfsdk:"assigned_to_vm_uuid"`
	PrivateIPv4Address types.String `tfsdk:"private_ipv4_address"`
	Enabled            types.Bool   `tfsdk:"enabled"`
}

func NewFloatingIPResource() resource.Resource {
	return &floatingIPResource{}
}

func (r *floatingIPResource) Metadata(_ context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_floating_ip"
}

func (r *floatingIPResource) Schema(_ context.Context, _ resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = resourceschema.Schema{
		Description: "Manages a floating IP, optionally assigned to a VM.",
		Attributes: map[string]resourceschema.Attribute{
			"uuid": resourceschema.StringAttribute{
				Computed:    true,
				Description: "UUID of the floating IP.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": resourceschema.StringAttribute{
				Required:    true,
				Description: "Name of the floating IP. Used as the lookup key.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"vm_name": resourceschema.StringAttribute{
				Optional:    true,
				Description: "Name of the VM this address is assigned to. Omit to keep the address unassigned.",
			},
			"public_ipv4": resourceschema.StringAttribute{
				Computed:    true,
				Description: "The public IPv4 address.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"assigned_to_vm_uuid": resourceschema.StringAttribute{
				Computed:    true,
				Description: "UUID of the owning VM. Empty when unassigned.",
			},
			"private_ipv4_address": resourceschema.StringAttribute{
				Computed:    true,
				Description: "Private IPv4 the address maps to. Empty when unassigned.",
			},
			"enabled": resourceschema.BoolAttribute{
				Computed:    true,
				Description: "Whether the address is enabled.",
			},
		},
	}
}

func (r *floatingIPResource) Configure(_ context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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

func (r *floatingIPResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var plan floatingIPResourceModel
	diags := req.Plan.Get(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	ip, err := r.client.EnsureFloatingIP(ctx, plan.Name.ValueString(), plan.VMName.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error creating floating IP", err.Error())
		return
	}

	tflog.Info(ctx, "Reconciled floating IP", map[string]any{
		"name":    ip.Name,
		"address": ip.PublicIPv4,
		"changed": ip.Changed,
	})

	mapFloatingIPToModel(&plan, ip)
	diags = resp.State.Set(ctx, &plan)
	resp.Diagnostics.Append(diags...)
}

func (r *floatingIPResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var state floatingIPResourceModel
	diags := req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	ip, err := r.client.FindFloatingIP(ctx, state.Name.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error reading floating IP", err.Error())
		return
	}
	if ip == nil {
		resp.State.RemoveResource(ctx)
		return
	}

	// vm_name is configuration, not provider state; keep what the
	// practitioner wrote unless the assignment is gone.
	if ip.AssignedToVMUUID == "" {
		state.VMName = types.StringNull()
	}
	vmName := state.VMName
	mapFloatingIPToModel(&state, ip)
	state.VMName = vmName

	diags = resp.State.Set(ctx, &state)
	resp.Diagnostics.Append(diags...)
}

// Update only ever means a vm_name change: unassign from the old VM
// first, then assign to the new one. The provider rejects assigning
// an address that is still attached elsewhere.
func (r *floatingIPResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan floatingIPResourceModel
	var state floatingIPResourceModel

	diags := req.Plan.Get(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	diags = req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := plan.Name.ValueString()

	if state.AssignedToVMUUID.ValueString() != "" {
		if _, err := r.client.UnassignFloatingIP(ctx, name); err != nil {
			resp.Diagnostics.AddError("Error unassigning floating IP", err.Error())
			return
		}
	}

	ip, err := r.client.EnsureFloatingIP(ctx, name, plan.VMName.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error updating floating IP", err.Error())
		return
	}

	mapFloatingIPToModel(&plan, ip)
	diags = resp.State.Set(ctx, &plan)
	resp.Diagnostics.Append(diags...)
}

func (r *floatingIPResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var state floatingIPResourceModel
	diags := req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := state.Name.ValueString()

	// The provider will not delete an address that is still assigned.
	if state.AssignedToVMUUID.ValueString() != "" {
		if _, err := r.client.UnassignFloatingIP(ctx, name); err != nil {
			resp.Diagnostics.AddError("Error unassigning floating IP", err.Error())
			return
		}
	}

	if _, err := r.client.DeleteFloatingIP(ctx, name); err != nil {
		resp.Diagnostics.AddError("Error deleting floating IP", err.Error())
		return
	}

	tflog.Info(ctx, "Deleted floating IP", map[string]any{"name": name})

	resp.State.RemoveResource(ctx)
}

func mapFloatingIPToModel(m *floatingIPResourceModel, ip *idcloudhost.FloatingIP) {
	m.UUID = types.StringValue(ip.UUID)
	m.Name = types.StringValue(ip.Name)
	m.PublicIPv4 = types.StringValue(ip.PublicIPv4)
	m.AssignedToVMUUID = types.StringValue(ip.AssignedToVMUUID)
	m.PrivateIPv4Address = types.StringValue(ip.PrivateIPv4Address)
	m.Enabled = types.BoolValue(ip.Enabled)
	if ip.VMName != "" {
		m.VMName = types.StringValue(ip.VMName)
	}
}
