package provider

import (
	"context"
	"os"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	pschema "github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"terraform-provider-idcloudhost/internal/idcloudhost"
)

type providerModel struct {
	BaseURL  types.String `tfsdk:"base_url"`
	APIKey   types.String `tfsdk:"api_key"`
	Location types.String `tfsdk:"location"`
}

func providerConfigSchema() map[string]pschema.Attribute {
	return map[string]pschema.Attribute{
		"base_url": pschema.StringAttribute{
			Optional:    true,
			Description: "Base URL of the idcloudhost API. Defaults to " + idcloudhost.DefaultBaseURL + ".",
		},
		"api_key": pschema.StringAttribute{
			Optional:    true,
			Sensitive:   true,
			Description: "API token for idcloudhost.com. Can also be set via IDCLOUDHOST_API_KEY.",
			Validators:  []validator.String{stringvalidator.LengthAtLeast(1)},
		},
		"location": pschema.StringAttribute{
			Optional: true,
			Description: "Location (region) every resource in this provider instance lives in. " +
				"One of jkt01, jkt02, jkt03, or sgp01. Can also be set via IDCLOUDHOST_LOCATION.",
			Validators: []validator.String{stringvalidator.OneOf(idcloudhost.Locations...)},
		},
	}
}

func readConfig(ctx context.Context, req provider.ConfigureRequest) (providerModel, diag.Diagnostics) {
	var cfg providerModel
	var diags diag.Diagnostics

	req.Config.Get(ctx, &cfg)

	if cfg.BaseURL.IsNull() || cfg.BaseURL.IsUnknown() {
		if v := os.Getenv("IDCLOUDHOST_BASE_URL"); v != "" {
			cfg.BaseURL = types.StringValue(v)
		} else {
			cfg.BaseURL = types.StringValue(idcloudhost.DefaultBaseURL)
		}
	}
	if cfg.APIKey.IsNull() || cfg.APIKey.IsUnknown() {
		if v := os.Getenv("IDCLOUDHOST_API_KEY"); v != "" {
			cfg.APIKey = types.StringValue(v)
		}
	}
	if cfg.Location.IsNull() || cfg.Location.IsUnknown() {
		if v := os.Getenv("IDCLOUDHOST_LOCATION"); v != "" {
			cfg.Location = types.StringValue(v)
		}
	}

	if cfg.APIKey.ValueString() == "" {
		diags.AddError(
			"Missing API key",
			"api_key must be configured or IDCLOUDHOST_API_KEY set.",
		)
	}
	if cfg.Location.ValueString() == "" {
		diags.AddError(
			"Missing location",
			"location must be configured or IDCLOUDHOST_LOCATION set.",
		)
	}

	return cfg, diags
}
