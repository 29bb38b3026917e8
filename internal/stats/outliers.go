package stats

// minOutlierSample is the smallest sample on which the IQR check is meaningful.
const minOutlierSample = 5

// elevatedOutlierShare is the outlier percentage above which data cleaning is advised.
const elevatedOutlierShare = 10.0

// OutlierReport is the result of the Tukey-fence (1.5 x IQR) data-quality check.
type OutlierReport struct {
	Skipped  bool    `json:"skipped"`
	Q1       float64 `json:"q1"`
	Q3       float64 `json:"q3"`
	IQR      float64 `json:"iqr"`
	Lower    float64 `json:"lower_fence"`
	Upper    float64 `json:"upper_fence"`
	Count    int     `json:"count"`
	Share    float64 `json:"share_pct"`
	Elevated bool    `json:"elevated"`
}

// DetectOutliers counts values outside [Q1-1.5*IQR, Q3+1.5*IQR]. Samples with
// fewer than five valid values are skipped.
func DetectOutliers(values []float64) OutlierReport {
	sorted := sortedClean(values)
	if len(sorted) < minOutlierSample {
		return OutlierReport{Skipped: true}
	}

	r := OutlierReport{
		Q1: quantileSorted(sorted, 0.25),
		Q3: quantileSorted(sorted, 0.75),
	}
	r.IQR = r.Q3 - r.Q1
	r.Lower = r.Q1 - 1.5*r.IQR
	r.Upper = r.Q3 + 1.5*r.IQR

	for _, v := range sorted {
		if v < r.Lower || v > r.Upper {
			r.Count++
		}
	}
	r.Share = float64(r.Count) / float64(len(sorted)) * 100
	r.Elevated = r.Share > elevatedOutlierShare
	return r
}
