package dto

type AuthHeaders struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing votefinder_token"`
}

type ListTasksInput struct {
	AuthHeaders
}

type ListExecutionsInput struct {
	AuthHeaders
	Task  string `query:"task" description:"Only runs of this task"`
	Limit int    `query:"limit" minimum:"1" maximum:"200" default:"50" description:"Number of runs"`
}

type RunTaskInput struct {
	AuthHeaders
	Name string `path:"name" description:"Task name"`
}
