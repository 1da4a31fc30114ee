package config

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	cmtconfig "github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/libs/os"
)

var appConfigTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("appConfigFileTemplate").Funcs(template.FuncMap{
		"StringsJoin": strings.Join,
	})
	if appConfigTemplate, err = tmpl.Parse(defaultAppConfigTemplate); err != nil {
		panic(err)
	}
}

// WriteConfigFiles writes config.toml through cometbft and renders app.toml
// from the embedded template.
func WriteConfigFiles(config *Config) {
	cmtconfig.WriteConfigFile(config.RootDir+"/config/config.toml", config.Config)
	WriteAppConfigFile(config.AppConfigFile(), config.App)
}

func WriteAppConfigFile(configFilePath string, config *LedgerAppConfig) {
	var buffer bytes.Buffer

	if err := appConfigTemplate.Execute(&buffer, config); err != nil {
		panic(err)
	}

	os.MustWriteFile(configFilePath, buffer.Bytes(), 0o644)
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go.
//
//go:embed app.toml.tpl
var defaultAppConfigTemplate string
