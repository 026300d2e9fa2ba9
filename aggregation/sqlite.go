package aggregation

// Datetimes are stored as ISO-8601 text. Whole months are counted by
// calendar fields, minus one when the later day-and-time is earlier in its
// month than the earlier one.
var sqlite = grammar{
	greatest:        "MAX",
	isTrue:          "{col} = 1",
	dateRangeOfDays: "CAST(julianday(MAX({col})) - julianday(MIN({col})) AS INTEGER)",
	dateRangeOfMonths: "((CAST(strftime('%Y', MAX({col})) AS INTEGER) - CAST(strftime('%Y', MIN({col})) AS INTEGER)) * 12" +
		" + CAST(strftime('%m', MAX({col})) AS INTEGER) - CAST(strftime('%m', MIN({col})) AS INTEGER)" +
		" - (CASE WHEN strftime('%d%H%M%S', MAX({col})) < strftime('%d%H%M%S', MIN({col})) THEN 1 ELSE 0 END))",
	jsonID:      "json_extract({col}, '$.id')",
	jsonText:    "{col}",
	jsonSize:    "json_extract({col}, '$.size')",
	elements:    "json_each({col})",
	objects:     "json_each({col})",
	elemNumber:  `"e"."value"`,
	elemDate:    `"e"."value"`,
	elemSize:    `json_extract("e"."value", '$.size')`,
	notDistinct: "IS",
}
