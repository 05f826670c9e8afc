package models

// SampleLabel is shown as the completion time while the sample result is displayed
const SampleLabel = "Sample Data"

// SampleSectors is the sector selection installed together with the sample result
var SampleSectors = []string{"IT Services", "Pharma", "Chemicals", "Defence"}

// SampleAnalysis returns a fresh copy of the built-in demonstration result
func SampleAnalysis() *AnalysisResult {
	return &AnalysisResult{
		Recommendations: []Recommendation{
			{
				Rank:             1,
				Ticker:           "TATAELXSI",
				CompanyName:      "Tata Elxsi Limited",
				Sector:           "IT Services",
				CurrentPrice:     "Rs. 7,450",
				TargetPrice:      "Rs. 10,500",
				UpsidePercentage: "40.9%",
				CompositeScore:   9.1,
				FundamentalScore: 8.9,
				TechnicalScore:   9.2,
				SentimentScore:   9.2,
				RiskLevel:        "Medium",
				MarketCap:        "Rs. 46,400 Cr",
				PERatio:          "62.5",
				RevenueGrowth:    "28%",
				BuyRationale:     "Leading embedded product design company benefiting from EV, autonomous driving, and media & entertainment digitization. Strong order book with marquee global OEM clients. High promoter holding at 43.9% with zero promoter pledge.",
				KeyRisks:         "Rich valuation multiples, client concentration risk, global auto slowdown impacting ER&D spends, INR appreciation impacting margins.",
				EntryPoint:       "Rs. 7,200-7,500",
				StopLoss:         "Rs. 6,500",
				InsiderActivity:  "No significant insider selling; promoter holding stable",
				Catalyst:         "EV design wins, new OEM partnerships, margin expansion from AI/ML services",
			},
			{
				Rank:             2,
				Ticker:           "DIXON",
				CompanyName:      "Dixon Technologies",
				Sector:           "Infrastructure",
				CurrentPrice:     "Rs. 12,800",
				TargetPrice:      "Rs. 18,000",
				UpsidePercentage: "40.6%",
				CompositeScore:   8.8,
				FundamentalScore: 8.6,
				TechnicalScore:   8.4,
				SentimentScore:   9.4,
				RiskLevel:        "Medium",
				MarketCap:        "Rs. 76,500 Cr",
				PERatio:          "115",
				RevenueGrowth:    "68%",
				BuyRationale:     "India's largest EMS player riding the PLI scheme wave. Samsung, Xiaomi, Google Pixel manufacturing contracts secured. Backward integration into PCB and sub-assemblies improving margins. FII holding increased by 3.2% last quarter.",
				KeyRisks:         "High PE valuation, customer concentration, PLI subsidy dependence, raw material import costs, forex risk.",
				EntryPoint:       "Rs. 12,500-13,000",
				StopLoss:         "Rs. 11,000",
				InsiderActivity:  "Promoter increased holding by 0.5% via creeping acquisition",
				Catalyst:         "Apple ecosystem entry, PLI disbursements, IT hardware manufacturing expansion",
			},
			{
				Rank:             3,
				Ticker:           "CLEAN",
				CompanyName:      "Clean Science & Technology",
				Sector:           "Chemicals",
				CurrentPrice:     "Rs. 1,520",
				TargetPrice:      "Rs. 2,100",
				UpsidePercentage: "38.2%",
				CompositeScore:   8.5,
				FundamentalScore: 9.0,
				TechnicalScore:   8.0,
				SentimentScore:   8.5,
				RiskLevel:        "Low",
				MarketCap:        "Rs. 16,100 Cr",
				PERatio:          "48.3",
				RevenueGrowth:    "22%",
				BuyRationale:     "Monopoly in MEHQ and BHA performance chemicals with 50%+ EBITDA margins. Unique catalytic process eliminates hazardous waste. Zero debt with Rs. 800 Cr cash. New capacity for HALS and guaiacol coming online FY26.",
				KeyRisks:         "Concentration in few product lines, raw material price volatility, new capacity utilization risk, global chemical demand slowdown.",
				EntryPoint:       "Rs. 1,480-1,540",
				StopLoss:         "Rs. 1,320",
				InsiderActivity:  "No insider selling; promoter holding at 55.2%",
				Catalyst:         "New product launches, export market expansion, HALS capacity commissioning",
			},
			{
				Rank:             4,
				Ticker:           "KAYNES",
				CompanyName:      "Kaynes Technology",
				Sector:           "Defence",
				CurrentPrice:     "Rs. 4,850",
				TargetPrice:      "Rs. 7,200",
				UpsidePercentage: "48.5%",
				CompositeScore:   8.2,
				FundamentalScore: 7.9,
				TechnicalScore:   8.4,
				SentimentScore:   8.3,
				RiskLevel:        "High",
				MarketCap:        "Rs. 27,600 Cr",
				PERatio:          "N/A",
				RevenueGrowth:    "85%",
				BuyRationale:     "Full-stack ESDM company with OSAT semiconductor facility under construction. Defence orders growing at 100%+ with BEL/DRDO/HAL as key clients. Only listed Indian company with PCB-to-chip packaging capability. Order book at Rs. 4,200 Cr.",
				KeyRisks:         "High capex for OSAT facility, execution risk on semiconductor fab, defence order lumpy recognition, rich valuations.",
				EntryPoint:       "Rs. 4,700-4,900",
				StopLoss:         "Rs. 4,000",
				InsiderActivity:  "Promoter purchased Rs. 12 Cr in open market",
				Catalyst:         "OSAT commissioning, defence order wins, semiconductor PLI benefits",
			},
			{
				Rank:             5,
				Ticker:           "MANKIND",
				CompanyName:      "Mankind Pharma",
				Sector:           "Pharma",
				CurrentPrice:     "Rs. 2,380",
				TargetPrice:      "Rs. 3,200",
				UpsidePercentage: "34.5%",
				CompositeScore:   7.9,
				FundamentalScore: 8.3,
				TechnicalScore:   7.6,
				SentimentScore:   7.8,
				RiskLevel:        "Low",
				MarketCap:        "Rs. 95,200 Cr",
				PERatio:          "38.5",
				RevenueGrowth:    "18%",
				BuyRationale:     "India's 4th largest pharma company with dominant position in chronic therapies. BSV acquisition transforms consumer health portfolio. Pan-India distribution with 12,000+ field force covering 95% pin codes.",
				KeyRisks:         "BSV integration execution, NLEM price controls, competitive intensity in OTC segment, working capital stretch.",
				EntryPoint:       "Rs. 2,300-2,400",
				StopLoss:         "Rs. 2,050",
				InsiderActivity:  "DII increased holding by 2.1% last quarter",
				Catalyst:         "BSV synergy realization, chronic therapy market share gains, OTC brand launches",
			},
		},
		AnalysisSummary:         "Our multi-factor screening identified 5 high-conviction multibagger candidates from an initial universe of 1,847 NSE/BSE listed stocks. The Indian market environment favors companies with strong domestic consumption tailwinds, PLI scheme beneficiaries, and China+1 manufacturing themes. Best risk/reward in mid-cap growth names with high promoter holdings and proven execution.",
		MarketOutlook:           "NIFTY consolidating near all-time highs with FII flows turning positive. Sectoral rotation favoring domestic cyclicals and capex themes. Key risks include crude oil spikes, INR depreciation, and global risk-off events. Favor companies with pricing power, import substitution catalysts, and rising DII/FII ownership.",
		TotalCandidatesScreened: 1847,
		AnalysisDate:            "2025-02-15",
	}
}
