// Package domain models flight disruption claims and the third-party data
// used to verify them.
//
// # Verification
//
// A claim arrives as [ParsedFlightData], already extracted from the
// traveler's submission. Flight-status providers return a
// [FlightStatusResult], which [CompareWithUserData] scores against the
// report on a 0–100 confidence scale:
//
//	delay differs by ≤15 min   no penalty
//	delay differs by ≤30 min   −10
//	delay differs by ≤60 min   −25
//	delay differs by >60 min   −45
//	cancelled vs. not          −50
//	airport mismatch           −20 each
//
// A claim is verified at 60 and matches the user's report at 80.
//
// # Weather classification
//
// [ClassificationRules] maps [WeatherConditions] to a [WeatherImpact].
// Rules only escalate; the result is the maximum across matched rules:
//
//	visibility < 0.5 km          severe, extraordinary   p=0.9
//	visibility < 1.0 km          moderate                p=0.7
//	wind > 50 km/h               severe, extraordinary   p=0.8
//	wind > 30 km/h               moderate                p=0.5
//	heavy rain/snow/hail         severe, extraordinary   p=0.8
//	other precipitation          moderate                p=0.4
//	fog, mist, haze, dust        light                   p=0.2
//	provider severe flag         severe, extraordinary   p=0.95
//
// A zero visibility is treated as unreported.
//
// # Attribution
//
// [AttributionEngine] turns an [AirportStatus] into a [DelayAttribution] on
// a 0–1 confidence scale: severe weather 0.9, moderate 0.7, light 0.4,
// non-normal operations 0.8, otherwise unknown at 0.5. The two confidence
// scales meet only in [VerificationResult.Normalized].
//
// # METAR
//
// [ParseMETAR] reads raw aviation routine weather reports. Wind is converted
// from knots to km/h, visibility from statute miles or metres to km, and
// altimeter settings from inHg to hPa. Present-weather groups become
// [WeatherCondition] entries with intensity from the "-" and "+" prefixes;
// vicinity ("VC") groups are ignored.
package domain
