package config

// Field describes one control on the settings form.
type Field struct {
	Model   string `yaml:"model" json:"model"`
	Label   string `yaml:"label" json:"label"`
	Kind    string `yaml:"kind" json:"kind"`
	Default any    `yaml:"default" json:"default"`
}

// FormSchema is the declarative description of the plugin settings page.
type FormSchema struct {
	Fields []Field `yaml:"fields" json:"fields"`
	Note   string  `yaml:"note" json:"note"`
}

// Schema describes the plugin switches for whatever settings UI the host
// renders. Defaults match Default().Plugin.
func Schema() FormSchema {
	d := Default().Plugin
	return FormSchema{
		Fields: []Field{
			{Model: "enabled", Label: "启用插件", Kind: "switch", Default: d.Enabled},
			{Model: "year_class", Label: "按照年代分类", Kind: "switch", Default: d.YearClass},
			{Model: "score_class", Label: "按照评分分类", Kind: "switch", Default: d.ScoreClass},
			{Model: "series_class", Label: "按照系列分类", Kind: "switch", Default: d.SeriesClass},
			{Model: "notify", Label: "发送消息", Kind: "switch", Default: d.Notify},
		},
		Note: "按评分分类，7-9 高分，4-6 一般，1-3 垃圾, 系列电影不参与评分.",
	}
}
