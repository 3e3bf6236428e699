// Copyright (c) 2026 Andi Zeiri
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/andiyzeiri/absolute-tms-sub000/internal/models"
)

// dateToken matches the date shapes brokers actually send: ISO,
// US slash/dash, and month-name forms. Validation happens later in the
// materializer; a captured token may still fail to parse.
const dateToken = `((?:\d{4}-\d{2}-\d{2})|(?:\d{1,2}[/-]\d{1,2}[/-]\d{2,4})|(?:(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2}(?:,\s*\d{4})?))`

var (
	loadNumberRe = regexp.MustCompile(`(?i)\b(?:load|order)\s*(?:number|no\.?|id)?\s*[#:]?\s*([0-9][A-Za-z0-9-]*)\b`)

	customerLabelRe   = regexp.MustCompile(`(?i)\b(?:customer|client|broker|shipper)\s*(?:name)?\s*[:\-]\s*([^\r\n;,]+)`)
	customerSubjectRe = regexp.MustCompile(`(?i)\b(?:load|order)\s*(?:number|no\.?|id)?\s*[#:]?\s*[0-9][A-Za-z0-9-]*\s*[—–-]+\s*([A-Za-z0-9&.' ]+?)\s*,`)

	originLabelRe      = regexp.MustCompile(`(?im)^\s*(?:origin|pickup|pick\s*up)(?:\s+(?:location|city|address))?\s*[:\-]\s*([A-Za-z][A-Za-z.' ]*)(?:,\s*([A-Za-z]{2})\b)?`)
	destinationLabelRe = regexp.MustCompile(`(?im)^\s*(?:destination|delivery|drop(?:\s*off)?|consignee)(?:\s+(?:location|city|address))?\s*[:\-]\s*([A-Za-z][A-Za-z.' ]*)(?:,\s*([A-Za-z]{2})\b)?`)
	laneRe             = regexp.MustCompile(`\b([A-Za-z][A-Za-z.' ]*?),?\s+([A-Z]{2})\s+(?:to|To|TO|->|—|–)\s+([A-Za-z][A-Za-z.' ]*?),?\s+([A-Z]{2})\b`)

	pickupDateRe   = regexp.MustCompile(`(?i)\b(?:pickup|pick\s*up|ship(?:ping)?)\s*(?:date|on)?\s*[:\-]?\s*` + dateToken)
	deliveryDateRe = regexp.MustCompile(`(?i)\b(?:delivery|deliver|drop(?:\s*off)?|due)\s*(?:date|by|on)?\s*[:\-]?\s*` + dateToken)

	deliveryTimeRe = regexp.MustCompile(`(?i)\b(?:delivery|appt|appointment)\s*(?:time)?\s*[:\-]?\s*(?:at|by)?\s*(\d{1,2}:\d{2}\s*(?:am|pm)?|\d{1,2}\s*(?:am|pm))\b`)

	rateLabelRe = regexp.MustCompile(`(?i)\b(?:rate|price|pay(?:ing)?|amount|total|offer)\s*[:\-]?\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	rateBareRe  = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

	weightLabelRe = regexp.MustCompile(`(?i)\b(?:weight|wt)\s*[:\-]?\s*([0-9][0-9,]*(?:\.[0-9]+)?(?:\s*(?:lbs?|pounds|kgs?))?)`)
	weightBareRe  = regexp.MustCompile(`(?i)\b([0-9][0-9,]*(?:\.[0-9]+)?\s*(?:lbs|pounds|kgs))\b`)

	commodityRe = regexp.MustCompile(`(?i)\b(?:commodity|freight|cargo|product)\s*(?:type)?\s*[:\-]\s*([^\r\n;]+)`)
	notesRe     = regexp.MustCompile(`(?i)\b(?:notes?|special instructions|comments|remarks)\s*[:\-]\s*([^\r\n]+)`)
)

// defaultRules returns the ordered rule set. Earlier rules win: each
// rule only fills fields that are still unset, so precise labelled
// matches take precedence over looser positional ones.
func defaultRules() []Rule {
	return []Rule{
		{Name: "load-number", Apply: applyLoadNumber},
		{Name: "customer-label", Apply: applyCustomerLabel},
		{Name: "customer-subject", Apply: applyCustomerSubject},
		{Name: "origin-label", Apply: applyOriginLabel},
		{Name: "destination-label", Apply: applyDestinationLabel},
		{Name: "lane", Apply: applyLane},
		{Name: "pickup-date", Apply: applyPickupDate},
		{Name: "delivery-date", Apply: applyDeliveryDate},
		{Name: "delivery-time", Apply: applyDeliveryTime},
		{Name: "rate", Apply: applyRate},
		{Name: "weight", Apply: applyWeight},
		{Name: "commodity", Apply: applyCommodity},
		{Name: "notes", Apply: applyNotes},
	}
}

func applyLoadNumber(_, text string, out *models.ExtractedLoadData) {
	if out.LoadNumber != nil {
		return
	}
	if m := loadNumberRe.FindStringSubmatch(text); m != nil {
		setString(&out.LoadNumber, m[1])
	}
}

func applyCustomerLabel(_, text string, out *models.ExtractedLoadData) {
	if out.Customer != nil {
		return
	}
	if m := customerLabelRe.FindStringSubmatch(text); m != nil {
		setString(&out.Customer, m[1])
	}
}

func applyCustomerSubject(subject, _ string, out *models.ExtractedLoadData) {
	if out.Customer != nil {
		return
	}
	if m := customerSubjectRe.FindStringSubmatch(subject); m != nil {
		setString(&out.Customer, m[1])
	}
}

func applyOriginLabel(_, text string, out *models.ExtractedLoadData) {
	if out.Origin != nil {
		return
	}
	if m := originLabelRe.FindStringSubmatch(text); m != nil {
		setPlace(&out.Origin, m[1], m[2])
	}
}

func applyDestinationLabel(_, text string, out *models.ExtractedLoadData) {
	if out.Destination != nil {
		return
	}
	if m := destinationLabelRe.FindStringSubmatch(text); m != nil {
		setPlace(&out.Destination, m[1], m[2])
	}
}

func applyLane(_, text string, out *models.ExtractedLoadData) {
	m := laneRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	if out.Origin == nil {
		setPlace(&out.Origin, m[1], m[2])
	}
	if out.Destination == nil {
		setPlace(&out.Destination, m[3], m[4])
	}
}

func applyPickupDate(_, text string, out *models.ExtractedLoadData) {
	if out.PickupDate != nil {
		return
	}
	if m := pickupDateRe.FindStringSubmatch(text); m != nil {
		setString(&out.PickupDate, m[1])
	}
}

func applyDeliveryDate(_, text string, out *models.ExtractedLoadData) {
	if out.DeliveryDate != nil {
		return
	}
	if m := deliveryDateRe.FindStringSubmatch(text); m != nil {
		setString(&out.DeliveryDate, m[1])
	}
}

func applyDeliveryTime(_, text string, out *models.ExtractedLoadData) {
	if out.DeliveryTime != nil {
		return
	}
	if m := deliveryTimeRe.FindStringSubmatch(text); m != nil {
		setString(&out.DeliveryTime, m[1])
	}
}

func applyRate(_, text string, out *models.ExtractedLoadData) {
	if out.Rate != nil {
		return
	}
	m := rateLabelRe.FindStringSubmatch(text)
	if m == nil {
		m = rateBareRe.FindStringSubmatch(text)
	}
	if m == nil {
		return
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		// Not a usable amount: treat as not found rather than zero.
		return
	}
	out.Rate = &v
}

func applyWeight(_, text string, out *models.ExtractedLoadData) {
	if out.Weight != nil {
		return
	}
	m := weightLabelRe.FindStringSubmatch(text)
	if m == nil {
		m = weightBareRe.FindStringSubmatch(text)
	}
	if m != nil {
		setString(&out.Weight, m[1])
	}
}

func applyCommodity(_, text string, out *models.ExtractedLoadData) {
	if out.Commodity != nil {
		return
	}
	if m := commodityRe.FindStringSubmatch(text); m != nil {
		setString(&out.Commodity, m[1])
	}
}

func applyNotes(_, text string, out *models.ExtractedLoadData) {
	if out.Notes != nil {
		return
	}
	if m := notesRe.FindStringSubmatch(text); m != nil {
		setString(&out.Notes, m[1])
	}
}

// setString assigns a trimmed value, leaving the field unset when the
// match is empty after trimming.
func setString(dst **string, raw string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = &v
}

var trailingProvinceRe = regexp.MustCompile(`^(.*\S)\s+([A-Z]{2})$`)

func setPlace(dst **models.Place, city, province string) {
	city = strings.TrimSpace(city)
	province = strings.TrimSpace(province)
	// "Toronto ON" without a comma: peel the code off the city.
	if province == "" {
		if m := trailingProvinceRe.FindStringSubmatch(city); m != nil {
			city, province = m[1], m[2]
		}
	}
	if city == "" {
		return
	}
	*dst = &models.Place{
		City:     city,
		Province: strings.ToUpper(province),
	}
}
