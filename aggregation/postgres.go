package aggregation

var postgres = grammar{
	greatest:          "GREATEST",
	isTrue:            "{col} IS TRUE",
	dateRangeOfDays:   "EXTRACT(DAY FROM (MAX({col}) - MIN({col})))",
	dateRangeOfMonths: "(EXTRACT(YEAR FROM AGE(MAX({col}), MIN({col}))) * 12 + EXTRACT(MONTH FROM AGE(MAX({col}), MIN({col}))))",
	jsonID:            "({col} ->> 'id')",
	jsonText:          "({col})::text",
	jsonSize:          "(({col} ->> 'size')::numeric)",
	elements:          "jsonb_array_elements_text(({col})::jsonb)",
	objects:           "jsonb_array_elements(({col})::jsonb)",
	elemNumber:        `("e"."value")::numeric`,
	elemDate:          `("e"."value")::timestamptz`,
	elemSize:          `(("e"."value" ->> 'size')::numeric)`,
	notDistinct:       "IS NOT DISTINCT FROM",
}
