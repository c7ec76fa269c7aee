package main

type BenchmarkConfiguration struct {
	Runs      int     `yaml:"runs"`
	Timeout   string  `yaml:"timeout"`
	Threshold float64 `yaml:"threshold"`
	Compare   string  `yaml:"compare"`
}

type Case struct {
	Name    string                 `yaml:"name"`
	Payload string                 `yaml:"payload"`
	Label   string                 `yaml:"label"`
	Args    map[string]interface{} `yaml:"args"`
}

type BenchmarkList struct {
	BenchmarkConfiguration `yaml:",inline"`
	Requires               string   `yaml:"requires"`
	Steps                  []string `yaml:"steps"`
	Cases                  []Case   `yaml:"cases"`
}
