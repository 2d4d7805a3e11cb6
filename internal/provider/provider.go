package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	pschema "github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"

	"terraform-provider-idcloudhost/internal/idcloudhost"
)

var _ provider.Provider = &IDCloudHostProvider{}

func New() provider.Provider { return &IDCloudHostProvider{} }

type IDCloudHostProvider struct {
	version string
}

func (p *IDCloudHostProvider) Metadata(_ context.Context, _ provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "idcloudhost"
	resp.Version = p.version
}

func (p *IDCloudHostProvider) Schema(_ context.Context, _ provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = pschema.Schema{
		Description: "Manages idcloudhost.com resources: networks, floating IPs, VMs and block storage.",
		Attributes:  providerConfigSchema(),
	}
}

func (p *IDCloudHostProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	cfg, diags := readConfig(ctx, req)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	client, err := idcloudhost.NewClient(idcloudhost.Config{
		BaseURL:  cfg.BaseURL.ValueString(),
		APIKey:   cfg.APIKey.ValueString(),
		Location: cfg.Location.ValueString(),
	})
	if err != nil {
		resp.Diagnostics.AddError("Invalid provider configuration", err.Error())
		return
	}

	resp.DataSourceData = client
	resp.ResourceData = client
}

func (p *IDCloudHostProvider) DataSources(_ context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewNetworkDataSource,
		NewPublicIPDataSource,
	}
}

func (p *IDCloudHostProvider) Resources(_ context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewNetworkResource,
		NewFloatingIPResource,
		NewVMResource,
		NewBlockStorageResource,
	}
}
