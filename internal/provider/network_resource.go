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
	_ resource.Resource              = &networkResource{}
	_ resource.ResourceWithConfigure = &networkResource{}
)

type networkResource struct {
	client *idcloudhost.Client
}

type networkResourceModel struct {
	UUID      types.String `tfsdk:"uuid"`
	Name      types.String `tfsdk:"name"`
	Subnet    types.String `tfsdk:"subnet"`
	IsDefault types.Bool   `tfsdk:"is_default"`
}

func NewNetworkResource() resource.Resource {
	return &networkResource{}
}

func (r *networkResource) Metadata(_ context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_network"
}

func (r *networkResource) Schema(_ context.Context, _ resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = resourceschema.Schema{
		Description: "Manages a VPC network. Networks are immutable once created; changing the name replaces the network.",
		Attributes: map[string]resourceschema.Attribute{
			"uuid": resourceschema.StringAttribute{
				Computed:    true,
				Description: "UUID of the network.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": resourceschema.StringAttribute{
				Required:    true,
				Description: "Name of the network. Used as the lookup key.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"subnet": resourceschema.StringAttribute{
				Computed:    true,
				Description: "Subnet assigned by the provider.",
			},
			"is_default": resourceschema.BoolAttribute{
				Computed:    true,
				Description: "Whether this network is the location's default.",
			},
		},
	}
}

func (r *networkResource) Configure(_ context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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

func (r *networkResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var plan networkResourceModel
	diags := req.Plan.Get(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	network, err := r.client.EnsureNetwork(ctx, plan.Name.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error creating network", err.Error())
		return
	}

	tflog.Info(ctx, "Reconciled network", map[string]any{
		"name":    network.Name,
		"uuid":    network.UUID,
		"changed": network.Changed,
	})

	mapNetworkToModel(&plan, network)
	diags = resp.State.Set(ctx, &plan)
	resp.Diagnostics.Append(diags...)
}

func (r *networkResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var state networkResourceModel
	diags := req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	network, err := r.client.FindNetwork(ctx, state.Name.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error reading network", err.Error())
		return
	}
	if network == nil {
		resp.State.RemoveResource(ctx)
		return
	}

	mapNetworkToModel(&state, network)
	diags = resp.State.Set(ctx, &state)
	resp.Diagnostics.Append(diags...)
}

// Networks have no update operation; every configurable attribute
// forces replacement.
func (r *networkResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan networkResourceModel
	diags := req.Plan.Get(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	diags = resp.State.Set(ctx, &plan)
	resp.Diagnostics.Append(diags...)
}

func (r *networkResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var state networkResourceModel
	diags := req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	network, err := r.client.DeleteNetwork(ctx, state.Name.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error deleting network", err.Error())
		return
	}

	tflog.Info(ctx, "Deleted network", map[string]any{
		"name":    state.Name.ValueString(),
		"changed": network != nil,
	})

	resp.State.RemoveResource(ctx)
}

func mapNetworkToModel(m *networkResourceModel, n *idcloudhost.Network) {
	m.UUID = types.StringValue(n.UUID)
	m.Name = types.StringValue(n.Name)
	m.Subnet = types.StringValue(n.Subnet)
	m.IsDefault = types.BoolValue(n.IsDefault)
}
