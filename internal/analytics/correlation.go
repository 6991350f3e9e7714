// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package analytics

import (
	"fmt"
	"math"

	"github.com/melograph/melograph/internal/models"
)

// Correlate computes the Pearson correlation and least-squares regression of
// axis y on axis x over the given plays. When fewer than two plays remain or
// either axis has zero variance the coefficient is undefined and the result
// carries Defined=false with only the count populated.
func Correlate(events []models.PlayEvent, xAxis, yAxis string) (models.AnalyticsResult, error) {
	x, err := AxisByName(xAxis)
	if err != nil {
		return models.AnalyticsResult{}, err
	}
	y, err := AxisByName(yAxis)
	if err != nil {
		return models.AnalyticsResult{}, err
	}

	result := models.AnalyticsResult{Count: len(events)}

	n := len(events)
	if n < 2 {
		return result, nil
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range events {
		xs[i] = x.Extract(&events[i])
		ys[i] = y.Extract(&events[i])
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var numerator, denomX, denomY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		numerator += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}

	// Zero variance on either axis leaves the coefficient undefined.
	if denomX == 0 || denomY == 0 {
		return result, nil
	}

	result.Defined = true
	result.Coefficient = numerator / math.Sqrt(denomX*denomY)

	slope := numerator / denomX
	intercept := meanY - slope*meanX

	// R-squared from the residual sum. Equals r*r for simple OLS.
	var ssRes float64
	for i := 0; i < n; i++ {
		resid := ys[i] - (slope*xs[i] + intercept)
		ssRes += resid * resid
	}
	rSquared := 1 - ssRes/denomY

	result.Regression = &models.Regression{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  rSquared,
	}

	return result, nil
}

// CorrelationTitle renders the chart title summarizing the relationship.
func CorrelationTitle(xAxis, yAxis string, result models.AnalyticsResult) string {
	if !result.Defined {
		return fmt.Sprintf("%s vs %s (n=%d, r undefined)", yAxis, xAxis, result.Count)
	}
	return fmt.Sprintf("%s vs %s (n=%d, r=%.3f)", yAxis, xAxis, result.Count, result.Coefficient)
}
