package statsapi

const eventQuery = `query Event($season: Int!, $code: String!) {
  eventByCode(season: $season, code: $code) {
    name
    teams { team { number } }
  }
}`

const eventMatchesQuery = `query EventMatches($season: Int!, $code: String!) {
  eventByCode(season: $season, code: $code) {
    matches {
      matchNum
      tournamentLevel
      teams { teamNumber alliance }
    }
  }
}`

const teamQuery = `query Team($number: Int!, $season: Int!) {
  teamByNumber(number: $number) {
    number
    name
    matches(season: $season) {
      match {
        matchNum
        teams { teamNumber alliance }
        scores {
          ... on MatchScores2025 {
            red { totalPointsNp autoPoints dcPoints goalRp patternRp movementRp }
            blue { totalPointsNp autoPoints dcPoints goalRp patternRp movementRp }
          }
        }
      }
    }
    events(season: $season) {
      event { name updatedAt }
      stats {
        ... on TeamEventStats2025 {
          opr { totalPointsNp }
        }
      }
    }
    quickStats(season: $season) {
      tot { value }
    }
  }
}`
