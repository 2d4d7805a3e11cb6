package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/resource"
	resourceschema "github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/int64planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"terraform-provider-idcloudhost/internal/idcloudhost"
)

var (
	_ resource.Resource              = &blockStorageResource{}
	_ resource.ResourceWithConfigure = &blockStorageResource{}
)

type blockStorageResource struct {
	client *idcloudhost.Client
}

type blockStorageResourceModel struct {
	UUID   types.String `tfsdk:"uuid"`
	Name   types.String `tfsdk:"name"`
	VMName types.String `tfsdk:"vm_name"`
	Size   types.Int64  `tfsdk:"size"`
}

func NewBlockStorageResource() resource.Resource {
	return &blockStorageResource{}
}

func (r *blockStorageResource) Metadata(_ context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_block_storage"
}

func (r *blockStorageResource) Schema(_ context.Context, _ resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = resourceschema.Schema{
		Description: "Manages a secondary disk attached to a VM. Disks cannot be " +
			"resized or moved; changing anything replaces the disk.",
		Attributes: map[string]resourceschema.Attribute{
			"uuid": resourceschema.StringAttribute{
				Computed:    true,
				Description: "UUID of the disk.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": resourceschema.StringAttribute{
				Computed:    true,
				Description: "Disk name assigned by the provider.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"vm_name": resourceschema.StringAttribute{
				Required:    true,
				Description: "Name of the VM the disk is attached to.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"size": resourceschema.Int64Attribute{
				Required:    true,
				Description: "Size of the disk in GB.",
				PlanModifiers: []planmodifier.Int64{
					int64planmodifier.RequiresReplace(),
				},
			},
		},
	}
}

func (r *blockStorageResource) Configure(_ context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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

func (r *blockStorageResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var plan blockStorageResourceModel
	diags := req.Plan.Get(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	disk, err := r.client.AttachDisk(ctx, plan.VMName.ValueString(), plan.Size.ValueInt64())
	if err != nil {
		resp.Diagnostics.AddError("Error attaching disk", err.Error())
		return
	}

	tflog.Info(ctx, "Attached disk", map[string]any{
		"vm_name": plan.VMName.ValueString(),
		"uuid":    disk.UUID,
		"name":    disk.Name,
	})

	plan.UUID = types.StringValue(disk.UUID)
	plan.Name = types.StringValue(disk.Name)
	plan.Size = types.Int64Value(disk.Size)

	diags = resp.State.Set(ctx, &plan)
	resp.Diagnostics.Append(diags...)
}

func (r *blockStorageResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var state blockStorageResourceModel
	diags := req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	vm, err := r.client.FindVM(ctx, "", state.VMName.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error reading VM storage", err.Error())
		return
	}
	if vm == nil {
		resp.State.RemoveResource(ctx)
		return
	}

	for _, disk := range vm.Storage {
		if disk.UUID == state.UUID.ValueString() {
			state.Name = types.StringValue(disk.Name)
			state.Size = types.Int64Value(disk.Size)
			diags = resp.State.Set(ctx, &state)
			resp.Diagnostics.Append(diags...)
			return
		}
	}

	resp.State.RemoveResource(ctx)
}

// Disks have no update operation; every configurable attribute forces
// replacement.
func (r *blockStorageResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan blockStorageResourceModel
	diags := req.Plan.Get(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	diags = resp.State.Set(ctx, &plan)
	resp.Diagnostics.Append(diags...)
}

func (r *blockStorageResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var state blockStorageResourceModel
	diags := req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	disk, err := r.client.DetachDisk(ctx, state.VMName.ValueString(), state.Name.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error detaching disk", err.Error())
		return
	}

	tflog.Info(ctx, "Detached disk", map[string]any{
		"vm_name": state.VMName.ValueString(),
		"changed": disk != nil,
	})

	resp.State.RemoveResource(ctx)
}
