package mysql

// One pipeline run replaces the previous run wholesale; both tables are
// cleared and refilled inside a single transaction.

const deleteHotelsSQL = `DELETE FROM hotels`
const deleteDecisionsSQL = `DELETE FROM match_decisions`

const insertHotelsPrefix = `INSERT INTO hotels
  (name, price, price_source, rating, rating_source, unrated, review_count,
   lat, lon, center_km, sources, url_a, url_b, value_score, tier, location_cat)
VALUES `

const insertDecisionsPrefix = `INSERT INTO match_decisions
  (a_idx, b_idx, a_name, b_name, similarity, distance_m, accepted, reason)
VALUES `

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const listHotelsSQL = `
SELECT
  name, price, price_source, rating, rating_source, unrated, review_count,
  lat, lon, center_km, sources, url_a, url_b, value_score, tier, location_cat
FROM hotels
ORDER BY id
`

const listDecisionsSQL = `
SELECT a_idx, b_idx, a_name, b_name, similarity, distance_m, accepted, reason
FROM match_decisions
WHERE (? = FALSE OR accepted = TRUE)
ORDER BY id
LIMIT ?
`
