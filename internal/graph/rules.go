package graph

import "github.com/chrisroyse/docprov/internal/models"

// typePair is an unordered pair of entity types, used as a rule-table key.
type typePair struct {
	a, b models.EntityType
}

func pairKey(a, b models.EntityType) typePair {
	if a <= b {
		return typePair{a, b}
	}
	return typePair{b, a}
}

// relationRule is one static rule-based edge candidate (§4.6.4).
type relationRule struct {
	RelationshipType models.RelationshipType
	Weight           float64
}

// relationRules is the static type-pair -> relationship table covering
// legal, medical, temporal, and financial patterns. Looked up by unordered
// type pair; a pair absent from the table yields no rule-based edge.
var relationRules = map[typePair]relationRule{
	pairKey(models.EntityPerson, models.EntityOrganization):      {models.RelWorksAt, 0.75},
	pairKey(models.EntityPerson, models.EntityPerson):            {models.RelRelatedTo, 0.55},
	pairKey(models.EntityPerson, models.EntityLocation):          {models.RelLocatedIn, 0.60},
	pairKey(models.EntityPerson, models.EntityCaseNumber):        {models.RelPartyTo, 0.80},
	pairKey(models.EntityPerson, models.EntityExhibit):           {models.RelSignedBy, 0.65},
	pairKey(models.EntityPerson, models.EntityStatute):           {models.RelReferencedIn, 0.55},
	pairKey(models.EntityPerson, models.EntityMedication):        {models.RelTreatedWith, 0.70},
	pairKey(models.EntityPerson, models.EntityDiagnosis):         {models.RelTreatedWith, 0.70},
	pairKey(models.EntityPerson, models.EntityMedicalDevice):     {models.RelAdministeredVia, 0.65},
	pairKey(models.EntityPerson, models.EntityDate):               {models.RelOccurredAt, 0.55},
	pairKey(models.EntityOrganization, models.EntityOrganization): {models.RelPartOf, 0.60},
	pairKey(models.EntityOrganization, models.EntityLocation):     {models.RelLocatedIn, 0.75},
	pairKey(models.EntityOrganization, models.EntityCaseNumber):   {models.RelPartyTo, 0.80},
	pairKey(models.EntityOrganization, models.EntityStatute):      {models.RelCites, 0.65},
	pairKey(models.EntityOrganization, models.EntityAmount):       {models.RelManagedBy, 0.55},
	pairKey(models.EntityOrganization, models.EntityDate):         {models.RelOccurredAt, 0.55},
	pairKey(models.EntityCaseNumber, models.EntityStatute):        {models.RelCites, 0.90},
	pairKey(models.EntityCaseNumber, models.EntityExhibit):        {models.RelFiledIn, 0.80},
	pairKey(models.EntityCaseNumber, models.EntityLocation):       {models.RelFiledIn, 0.65},
	pairKey(models.EntityCaseNumber, models.EntityDate):           {models.RelOccurredAt, 0.60},
	pairKey(models.EntityCaseNumber, models.EntityAmount):         {models.RelRelatedTo, 0.55},
	pairKey(models.EntityStatute, models.EntityStatute):           {models.RelReferences, 0.60},
	pairKey(models.EntityExhibit, models.EntityDate):              {models.RelOccurredAt, 0.55},
	pairKey(models.EntityDiagnosis, models.EntityMedication):      {models.RelTreatedWith, 0.85},
	pairKey(models.EntityMedication, models.EntityMedication):     {models.RelInteractsWith, 0.75},
	pairKey(models.EntityDiagnosis, models.EntityMedicalDevice):   {models.RelAdministeredVia, 0.70},
}

// lookupRule returns the static rule for an unordered entity-type pair, if
// one exists.
func lookupRule(a, b models.EntityType) (relationRule, bool) {
	r, ok := relationRules[pairKey(a, b)]
	return r, ok
}

// clusterHintOverrides maps a cluster-hint tag string to the relationship
// family classify_by_cluster_hint prefers when it disagrees with the
// static rule table (§4.6.4).
var clusterHintOverrides = map[string]relationRule{
	"employment": {models.RelWorksAt, 0.88},
	"medical":    {models.RelTreatedWith, 0.88},
	"litigation": {models.RelPartyTo, 0.88},
}
