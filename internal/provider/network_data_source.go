package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	datasourceschema "github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"terraform-provider-idcloudhost/internal/idcloudhost"
)

var (
	_ datasource.DataSource              = &networkDataSource{}
	_ datasource.DataSourceWithConfigure = &networkDataSource{}
)

type networkDataSource struct {
	client *idcloudhost.Client
}

type networkDataSourceModel struct {
	UUID      types.String `tfsdk:"uuid"`
	Name      types.String `tfsdk:"name"`
	Subnet    types.String `tfsdk:"subnet"`
	IsDefault types.Bool   `tfsdk:"is_default"`
}

func NewNetworkDataSource() datasource.DataSource {
	return &networkDataSource{}
}

func (d *networkDataSource) Metadata(_ context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_network"
}

func (d *networkDataSource) Schema(_ context.Context, _ datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = datasourceschema.Schema{
		Description: "Looks up the default VPC network of the configured location.",
		Attributes: map[string]datasourceschema.Attribute{
			"uuid": datasourceschema.StringAttribute{
				Computed:    true,
				Description: "UUID of the default network.",
			},
			"name": datasourceschema.StringAttribute{
				Computed:    true,
				Description: "Name of the default network.",
			},
			"subnet": datasourceschema.StringAttribute{
				Computed:    true,
				Description: "Subnet assigned by the provider.",
			},
			"is_default": datasourceschema.BoolAttribute{
				Computed:    true,
				Description: "Always true for this data source.",
			},
		},
	}
}

func (d *networkDataSource) Configure(_ context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

func (d *networkDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	network, err := d.client.DefaultNetwork(ctx)
	if err != nil {
		resp.Diagnostics.AddError("Error reading default network", err.Error())
		return
	}

	state := networkDataSourceModel{
		UUID:      types.StringValue(network.UUID),
		Name:      types.StringValue(network.Name),
		Subnet:    types.StringValue(network.Subnet),
		IsDefault: types.BoolValue(network.IsDefault),
	}

	diags := resp.State.Set(ctx, &state)
	resp.Diagnostics.Append(diags...)
}
