package dashboard

import "github.com/sells-group/inetdash/internal/model"

func ip(v int) *int { return &v }

func fp(v float64) *float64 { return &v }

func rec(entity, code string, year int, usage float64) model.UsageRecord {
	return model.UsageRecord{
		Entity: entity,
		Code:   code,
		Year:   ip(year),
		Usage:  fp(usage),
		Date:   model.DateForYear(ip(year)),
	}
}

// scenarioRecords is the Afghanistan/World fixture.
func scenarioRecords() []model.UsageRecord {
	return []model.UsageRecord{
		rec("Afghanistan", "AFG", 2010, 5.0),
		rec("Afghanistan", "AFG", 2015, 10.0),
		rec("World", "OWID_WRL", 2015, 40.0),
	}
}

func scenarioCentroids() []model.CountryCentroid {
	return []model.CountryCentroid{{Code: "AFG", Lat: 33.0, Lon: 65.0}}
}
