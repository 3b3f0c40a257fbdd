package pipeline

import "caiso-pipeline/internal/model"

// CAISOFeeds builds the production feed set for the real-time LMP and
// generation merge: 5-minute hub prices (averaged across hubs before the
// final join), renewable dispatch by type, and system-wide total generation.
// hubLabels maps OASIS node identifiers to display names (e.g.
// "TH_SP15_GEN-APND" -> "SP15"); nodes lists the identifiers to query, in
// order.
func CAISOFeeds(nodes []string, hubLabels map[string]string) *Pipeline {
	lmp := &model.FeedDefinition{
		Name: "lmp",
		Query: model.Query{
			Name:        "PRC_INTVL_LMP",
			Version:     "1",
			MarketRunID: "RTM",
			Nodes:       nodes,
		},
		TimeColumn:     "INTERVALSTARTTIME_GMT",
		EntityColumn:   "NODE",
		CategoryColumn: "LMP_TYPE",
		ValueColumn:    "MW",
		Rename: map[string]string{
			"LMP": "lmp_total",
			"MCC": "congestion",
			"MCE": "energy",
			"MCL": "loss",
		},
		Labels:  hubLabels,
		Reducer: model.ReduceFirst,
		Join:    model.JoinInner,
	}

	renewables := &model.FeedDefinition{
		Name: "renewables",
		Query: model.Query{
			Name:    "SLD_REN_FCST",
			Version: "1",
		},
		TimeColumn:     "INTERVALSTARTTIME_GMT",
		CategoryColumn: "RENEWABLE_TYPE",
		ValueColumn:    "MW",
		// The report mixes market runs; only real-time dispatch rows count.
		Filters: map[string]string{"MARKET_RUN_ID": "RTD"},
		Reducer: model.ReduceSum,
		Derived: []model.Derivation{
			{Name: "renewables_total", Plus: []string{"Solar", "Wind"}},
		},
		Join: model.JoinOuter,
	}

	generation := &model.FeedDefinition{
		Name: "generation",
		Query: model.Query{
			Name:        "ENE_SLRS",
			Version:     "1",
			MarketRunID: "RTM",
		},
		TimeColumn:  "INTERVALSTARTTIME_GMT",
		ValueColumn: "MW",
		Filters: map[string]string{
			"TAC_ZONE_NAME": "Caiso_Totals",
			"SLRS_TYPE":     "ALL",
		},
		Rename:  map[string]string{"MW": "total_generation"},
		Reducer: model.ReduceSum,
		Join:    model.JoinOuter,
	}

	return &Pipeline{
		Feeds: []*model.FeedDefinition{lmp, renewables, generation},
		Derived: []model.Derivation{
			{Name: "thermal_and_other", Plus: []string{"total_generation"}, Minus: []string{"renewables_total"}},
		},
	}
}
