package bot

// Slash command names.
const (
	CmdSetupStats  = "setup_stats"
	CmdRank        = "rank"
	CmdLeaderboard = "leaderboard"
	CmdClear       = "clear"
	CmdServerInfo  = "serverinfo"
	CmdMeteoSetup  = "meteo_setup"
	CmdMeteoAdd    = "meteo_add"
	CmdMeteoRemove = "meteo_remove"
	CmdMeteoList   = "meteo_list"
	CmdMeteoNow    = "meteo_now"

	// SyncTextCommand re-registers the slash commands in the current guild.
	SyncTextCommand = "!sync"
)

type OptionType int

const (
	OptionString OptionType = iota
	OptionInteger
	OptionUser
	OptionChannel
)

type CommandOption struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
	MinValue    int
	MaxValue    int
}

// CommandSpec declares a slash command. Admin and ManageMessages are the
// permissions checked before the command runs.
type CommandSpec struct {
	Name           string
	Description    string
	Admin          bool
	ManageMessages bool
	Options        []CommandOption
}

// maxClear is the bulk-delete limit of the platform.
const maxClear = 100

var Commands = []CommandSpec{
	{Name: CmdSetupStats, Description: "[Admin] Crée les salons de statistiques", Admin: true},
	{Name: CmdRank, Description: "Affiche ton niveau et XP", Options: []CommandOption{
		{Name: "membre", Description: "Membre à afficher", Type: OptionUser},
	}},
	{Name: CmdLeaderboard, Description: "Affiche le TOP 10 du serveur"},
	{Name: CmdClear, Description: "Supprime des messages", ManageMessages: true, Options: []CommandOption{
		{Name: "nombre", Description: "Nombre de messages", Type: OptionInteger, Required: true, MinValue: 1, MaxValue: maxClear},
	}},
	{Name: CmdServerInfo, Description: "Infos du serveur"},
	{Name: CmdMeteoSetup, Description: "[Admin] Définit le salon météo", Admin: true, Options: []CommandOption{
		{Name: "salon", Description: "Salon des prévisions", Type: OptionChannel, Required: true},
	}},
	{Name: CmdMeteoAdd, Description: "Ajoute une ville et affiche sa météo", Admin: true, Options: []CommandOption{
		{Name: "ville", Description: "Nom de la ville", Type: OptionString, Required: true},
	}},
	{Name: CmdMeteoRemove, Description: "Retire une ville des prévisions", Admin: true, Options: []CommandOption{
		{Name: "ville", Description: "Nom de la ville", Type: OptionString, Required: true},
	}},
	{Name: CmdMeteoList, Description: "Affiche la liste des villes suivies", Admin: true},
	{Name: CmdMeteoNow, Description: "Force la mise à jour météo immédiate", Admin: true},
}

func findCommand(name string) (CommandSpec, bool) {
	for _, c := range Commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandSpec{}, false
}
