package config

// DefaultFallbackRegions is the built-in UK commuter-belt table. Coverage is
// deliberately partial: the table only grows by manual edits.
func DefaultFallbackRegions() map[string][]string {
	return map[string][]string{
		"london": {
			"croydon", "watford", "slough", "st albans", "romford",
			"kingston upon thames", "dartford", "woking", "luton", "reading",
		},
		"manchester": {
			"salford", "stockport", "bolton", "oldham", "rochdale", "wigan",
		},
		"birmingham": {
			"solihull", "wolverhampton", "dudley", "walsall", "coventry",
		},
		"leeds": {
			"bradford", "wakefield", "harrogate", "york",
		},
		"glasgow": {
			"paisley", "hamilton", "east kilbride",
		},
		"edinburgh": {
			"livingston", "dunfermline", "musselburgh",
		},
		"bristol": {
			"bath", "weston-super-mare", "newport",
		},
		"newcastle": {
			"gateshead", "sunderland", "durham",
		},
	}
}
