package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework-validators/datasourcevalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	datasourceschema "github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"terraform-provider-idcloudhost/internal/idcloudhost"
)

var (
	_ datasource.DataSource                     = &publicIPDataSource{}
	_ datasource.DataSourceWithConfigure        = &publicIPDataSource{}
	_ datasource.DataSourceWithConfigValidators = &publicIPDataSource{}
)

type publicIPDataSource struct {
	client *idcloudhost.Client
}

type publicIPDataSourceModel struct {
	VMUUID             types.String `tfsdk:"vm_uuid"`
	PrivateIPv4        types.String `tfsdk:"private_ipv4"`
	UUID               types.String `tfsdk:"uuid"`
	Name               types.String `tfsdk:"name"`
	PublicIPv4         types.String `tfsdk:"public_ipv4"`
	AssignedToVMUUID   types.String `tfsdk:"assigned_to_vm_uuid"`
	PrivateIPv4Address types.String `tfsdk:"private_ipv4_address"`
	Enabled            types.Bool   `tfsdk:"enabled"`
}

func NewPublicIPDataSource() datasource.DataSource {
	return &publicIPDataSource{}
}

func (d *publicIPDataSource) Metadata(_ context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_public_ip"
}

func (d *publicIPDataSource) Schema(_ context.Context, _ datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = datasourceschema.Schema{
		Description: "Looks up the public IPv4 address assigned to a VM, by VM UUID or " +
			"by the VM's private IPv4 address. Fails when no address is assigned.",
		Attributes: map[string]datasourceschema.Attribute{
			"vm_uuid": datasourceschema.StringAttribute{
				Optional:    true,
				Description: "UUID of the VM to look up.",
			},
			"private_ipv4": datasourceschema.StringAttribute{
				Optional:    true,
				Description: "Private IPv4 address of the VM to look up.",
			},
			"uuid": datasourceschema.StringAttribute{
				Computed:    true,
				Description: "UUID of the floating IP.",
			},
			"name": datasourceschema.StringAttribute{
				Computed:    true,
				Description: "Name of the floating IP.",
			},
			"public_ipv4": datasourceschema.StringAttribute{
				Computed:    true,
				Description: "The public IPv4 address.",
			},
			"assigned_to_vm_uuid": datasourceschema.StringAttribute{
				Computed:    true,
				Description: "UUID of the owning VM.",
			},
			"private_ipv4_address": datasourceschema.StringAttribute{
				Computed:    true,
				Description: "Private IPv4 the address maps to.",
			},
			"enabled": datasourceschema.BoolAttribute{
				Computed:    true,
				Description: "Whether the address is enabled.",
			},
		},
	}
}

func (d *publicIPDataSource) ConfigValidators(_ context.Context) []datasource.ConfigValidator {
	return []datasource.ConfigValidator{
		datasourcevalidator.ExactlyOneOf(
			path.MatchRoot("vm_uuid"),
			path.MatchRoot("private_ipv4"),
		),
	}
}

func (d *publicIPDataSource) Configure(_ context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

	d.client = client
}

func (d *publicIPDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var config publicIPDataSourceModel
	diags := req.Config.Get(ctx, &config)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	ip, err := d.client.LookupPublicIP(ctx, config.VMUUID.ValueString(), config.PrivateIPv4.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error looking up public IP", err.Error())
		return
	}

	config.UUID = types.StringValue(ip.UUID)
	config.Name = types.StringValue(ip.Name)
	config.PublicIPv4 = types.StringValue(ip.PublicIPv4)
	config.AssignedToVMUUID = types.StringValue(ip.AssignedToVMUUID)
	config.PrivateIPv4Address = types.StringValue(ip.PrivateIPv4Address)
	config.Enabled = types.BoolValue(ip.Enabled)

	diags = resp.State.Set(ctx, &config)
	resp.Diagnostics.Append(diags...)
}
